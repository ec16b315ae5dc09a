package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

// MigrationPaths locates the files the migrations touch.
type MigrationPaths struct {
	Roster     string
	Ledger     string
	Pending    string
	Sequence   string
	Interviews string
	Version    string
}

// Migration upgrades the flat files from Version-1 to Version.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, paths MigrationPaths) error
}

// Migrator applies schema migrations to the data directory once, recording progress in a
// version file.
type Migrator struct {
	paths      MigrationPaths
	migrations []Migration
	logger     *zap.Logger
}

// NewMigrator constructs a migrator with the built-in migrations.
func NewMigrator(paths MigrationPaths, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{paths: paths, migrations: builtinMigrations(), logger: logger}
}

// Version returns the recorded schema version, zero for a fresh data directory.
func (m *Migrator) Version() (int, error) {
	raw, err := os.ReadFile(m.paths.Version)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return 0, nil
	}
	version, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q", trimmed)
	}
	return version, nil
}

// Latest returns the highest known migration version.
func (m *Migrator) Latest() int {
	latest := 0
	for _, migration := range m.migrations {
		if migration.Version > latest {
			latest = migration.Version
		}
	}
	return latest
}

// Apply runs every migration newer than the recorded version and returns the versions applied.
func (m *Migrator) Apply(ctx context.Context) ([]int, error) {
	current, err := m.Version()
	if err != nil {
		return nil, err
	}

	applied := make([]int, 0)
	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := migration.Up(ctx, m.paths); err != nil {
			return applied, fmt.Errorf("migration %d %s: %w", migration.Version, migration.Name, err)
		}
		if err := writeFileAtomic(m.paths.Version, []byte(strconv.Itoa(migration.Version)+"\n")); err != nil {
			return applied, fmt.Errorf("record migration %d: %w", migration.Version, err)
		}
		m.logger.Info("schema migration applied", zap.Int("version", migration.Version), zap.String("name", migration.Name))
		applied = append(applied, migration.Version)
	}
	return applied, nil
}

func builtinMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_tables", Up: createTables},
		{Version: 2, Name: "ledger_comments_column", Up: addLedgerComments},
		{Version: 3, Name: "pending_ids", Up: addPendingIDs},
	}
}

func createTables(_ context.Context, paths MigrationPaths) error {
	if _, err := os.Stat(paths.Roster); errors.Is(err, fs.ErrNotExist) {
		if err := writeFileAtomic(paths.Roster, nil); err != nil {
			return err
		}
	}
	tables := []struct {
		path    string
		columns []string
	}{
		{paths.Ledger, models.LedgerColumns},
		{paths.Pending, models.PendingColumns},
		{paths.Interviews, models.InterviewColumns},
	}
	for _, table := range tables {
		if _, err := os.Stat(table.path); errors.Is(err, fs.ErrNotExist) {
			if err := writeCSV(table.path, table.columns, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func addLedgerComments(_ context.Context, paths MigrationPaths) error {
	header, records, ok, err := readRawTable(paths.Ledger)
	if err != nil || !ok {
		return err
	}
	if containsColumn(header, "Comments") {
		return nil
	}
	header = append(header, "Comments")
	for i := range records {
		records[i] = append(records[i], "")
	}
	return writeCSV(paths.Ledger, header, records)
}

func addPendingIDs(_ context.Context, paths MigrationPaths) error {
	header, records, ok, err := readRawTable(paths.Pending)
	if err != nil || !ok {
		return err
	}
	changed := false
	if !containsColumn(header, "Requester") {
		header = append(header, "Requester")
		for i := range records {
			records[i] = append(records[i], "")
		}
		changed = true
	}
	if !containsColumn(header, "ID") {
		header = append([]string{"ID"}, header...)
		for i := range records {
			records[i] = append([]string{strconv.Itoa(i + 1)}, records[i]...)
		}
		changed = true
		if err := bumpSequence(paths.Sequence, int64(len(records))); err != nil {
			return err
		}
	}
	if !changed {
		return nil
	}
	return writeCSV(paths.Pending, header, records)
}

// readRawTable returns ok=false when the file is missing or cannot be parsed; malformed files
// are left for the load path to report.
func readRawTable(path string) ([]string, [][]string, bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	header, records, err := readCSV(file)
	if err != nil {
		return nil, nil, false, nil
	}
	return header, records, true, nil
}

func bumpSequence(path string, floor int64) error {
	current := int64(0)
	if raw, err := os.ReadFile(path); err == nil {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); err == nil {
			current = parsed
		}
	}
	if floor <= current {
		return nil
	}
	return writeFileAtomic(path, []byte(strconv.FormatInt(floor, 10)+"\n"))
}

func containsColumn(header []string, column string) bool {
	for _, col := range header {
		if col == column {
			return true
		}
	}
	return false
}
