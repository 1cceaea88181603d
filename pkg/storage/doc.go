// Copyright © 2018 One Concern

// Package storage defines the key/value interface over which the mirror is read and refreshed.
//
// Implementations are located in sub-packages (e.g. localfs).
package storage
