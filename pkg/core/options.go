package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/overlay"
)

// Option configures a Manager
type Option func(*Manager)

// Logger sets the logger of the manager
func Logger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.l = l
		}
	}
}

// LinkStrategy selects how mirror paths are published: auto, symlink or copy. It defaults to auto.
func LinkStrategy(name string) Option {
	return func(m *Manager) {
		if name == "" {
			m.strategy = overlay.AutoName
			return
		}
		m.strategy = name
	}
}

// Clock sets the time source used to stamp updates
func Clock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Version sets the version of the tool recorded in settings
func Version(v string) Option {
	return func(m *Manager) {
		m.version = v
	}
}

// TagCacheSize sets the size of the tag cache. It defaults to 1024 documents.
func TagCacheSize(size int) Option {
	return func(m *Manager) {
		m.tagCacheSize = size
	}
}
