package settings

import (
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/settings/status"
	"github.com/oneconcern/docoverlay/pkg/storage/localfs"
)

const settingsPerm os.FileMode = 0644

// Store persists settings to a YAML file
type Store struct {
	fs       afero.Fs
	path     string
	migrator *Migrator
	l        *zap.Logger
}

// StoreOption configures a settings store
type StoreOption func(*Store)

// WithMigrator sets the migrator used to upgrade stale payloads
func WithMigrator(m *Migrator) StoreOption {
	return func(s *Store) {
		s.migrator = m
	}
}

// WithLogger sets the logger of the store
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		s.l = l
	}
}

// NewStore creates a settings store for the file at path
func NewStore(fs afero.Fs, path string, opts ...StoreOption) *Store {
	s := &Store{
		fs:       fs,
		path:     path,
		migrator: DefaultMigrator(),
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Path to the settings file
func (s *Store) Path() string {
	return s.path
}

// Exists tells if settings have been persisted
func (s *Store) Exists() (bool, error) {
	return afero.Exists(s.fs, s.path)
}

func (s *Store) readDocument() (Document, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, status.ErrNotInitialized.WrapMessage("no settings found at %s", s.path)
		}
		return Document{}, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return Document{}, status.ErrSettingsCorrupt.WrapMessage("%s: %v", s.path, err)
	}
	return doc, nil
}

// ReadFormat reads the format tag of the persisted settings.
//
// A payload without format tag has the legacy format.
func (s *Store) ReadFormat() (Format, error) {
	doc, err := s.readDocument()
	if err != nil {
		return Format{}, err
	}
	f, err := FormatOf(doc)
	if err != nil {
		return Format{}, status.ErrSettingsCorrupt.WrapMessage("%s: %v", s.path, err)
	}
	return f, nil
}

// Load the persisted settings, upgraded to the latest format.
//
// The upgrade happens in memory only: the upgraded settings are persisted by the next Save.
func (s *Store) Load() (model.Settings, []MigrationResult, error) {
	doc, err := s.readDocument()
	if err != nil {
		return model.Settings{}, nil, err
	}

	upgraded, results, err := s.migrator.Upgrade(doc)
	if err != nil {
		return model.Settings{}, nil, err
	}
	for _, r := range results {
		s.l.Debug("settings upgraded",
			zap.String("from", r.From.String()),
			zap.String("to", r.To.String()),
			zap.String("migration", r.Description),
		)
	}

	settings, err := Decode(upgraded)
	if err != nil {
		return model.Settings{}, nil, err
	}
	return settings, results, nil
}

// Save settings atomically: readers either see the previous payload or the new one.
func (s *Store) Save(settings model.Settings) error {
	data, err := Encode(settings).Marshal()
	if err != nil {
		return err
	}
	return localfs.WriteFileAtomic(s.fs, s.path, data, settingsPerm)
}
