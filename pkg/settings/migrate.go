package settings

import (
	"sort"

	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/settings/status"
)

// Migration upgrades a document from one format to the next.
//
// Apply must be a pure, additive transform: it only sets the fields it owns when they are absent,
// and never removes or renames anything else. The format tag is bumped by the Migrator once Apply succeeds.
type Migration struct {
	From        Format
	To          Format
	Description string
	Apply       func(Document) (Document, error)
}

// MigrationResult contains the result of a single migration
type MigrationResult struct {
	From        Format
	To          Format
	Description string
}

// Migrator upgrades documents to the latest format
type Migrator struct {
	migrations []Migration
	latest     Format
}

// NewMigrator creates a migrator targeting the latest format
func NewMigrator(latest Format) *Migrator {
	return &Migrator{
		latest:     latest,
		migrations: make([]Migration, 0, 2),
	}
}

// Latest format known to the migrator
func (m *Migrator) Latest() Format {
	return m.latest
}

// Register adds a migration to the migrator
func (m *Migrator) Register(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.SliceStable(m.migrations, func(i, j int) bool {
		return m.migrations[i].From.Compare(m.migrations[j].From) < 0
	})
}

// NeedsUpgrade tells if the document is older than the latest format
func (m *Migrator) NeedsUpgrade(doc Document) (bool, error) {
	f, err := FormatOf(doc)
	if err != nil {
		return false, status.ErrSettingsCorrupt.Wrap(err)
	}
	return f.Compare(m.latest) < 0, nil
}

// Upgrade applies, in order, exactly the migrations between the format of the document and the latest format.
//
// A document with a format newer than the latest format fails with ErrFormatUnknown.
// The input document is never modified.
func (m *Migrator) Upgrade(doc Document) (Document, []MigrationResult, error) {
	current, err := FormatOf(doc)
	if err != nil {
		return doc, nil, status.ErrSettingsCorrupt.Wrap(err)
	}
	if current.Compare(m.latest) > 0 {
		return doc, nil, status.ErrFormatUnknown.WrapMessage(
			"settings have format %s, but the latest format supported is %s", current, m.latest)
	}

	results := make([]MigrationResult, 0, len(m.migrations))
	for _, migration := range m.migrations {
		if migration.From.Compare(current) != 0 {
			continue
		}
		if migration.To.Compare(m.latest) > 0 {
			break
		}

		migrated, err := migration.Apply(doc)
		if err != nil {
			return doc, results, status.ErrMigration.WrapMessage(
				"from %s to %s: %v", migration.From, migration.To, err)
		}

		// the format tag is bumped last
		doc = migrated.Set(formatKey, migration.To.Tag)
		current = migration.To
		results = append(results, MigrationResult{
			From:        migration.From,
			To:          migration.To,
			Description: migration.Description,
		})
	}

	if current.Compare(m.latest) != 0 {
		return doc, results, status.ErrMigration.WrapMessage("no migration path from %s to %s", current, m.latest)
	}
	return doc, results, nil
}

// DefaultMigrator returns a migrator with all known migrations registered
func DefaultMigrator() *Migrator {
	m := NewMigrator(Latest)

	m.Register(Migration{
		From:        Legacy,
		To:          MustParseFormat("v0.2"),
		Description: "legacy installs were fully tracked copies: default to full mode and the default docs repo",
		Apply: func(doc Document) (Document, error) {
			return doc.
				SetDefault("mode", model.ModeFull.String()).
				SetDefault("docs_repo", model.DefaultDocsRepo), nil
		},
	})

	m.Register(Migration{
		From:        MustParseFormat("v0.2"),
		To:          MustParseFormat("v0.3"),
		Description: "add customized paths, tag filters and content state",
		Apply: func(doc Document) (Document, error) {
			return doc.
				SetDefault("customized_paths", []string{}).
				SetDefault("filters", defaultFilters()).
				SetDefault("content_state", map[string]string{}), nil
		},
	})

	return m
}
