package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

// LedgerRepository persists committed point changes in Points.csv.
type LedgerRepository struct {
	table *flatTable[models.LedgerEntry]
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(path string) *LedgerRepository {
	return &LedgerRepository{table: &flatTable[models.LedgerEntry]{
		path:    path,
		columns: models.LedgerColumns,
		decode:  decodeLedgerEntry,
		encode:  encodeLedgerEntry,
	}}
}

// Path returns the ledger file location.
func (r *LedgerRepository) Path() string {
	return r.table.path
}

// FileExists reports whether the ledger file is present on disk.
func (r *LedgerRepository) FileExists() bool {
	return r.table.exists()
}

// Load reads every ledger row.
func (r *LedgerRepository) Load(ctx context.Context) (LoadResult[models.LedgerEntry], error) {
	return r.table.load(ctx)
}

// Save rewrites the ledger with entries.
func (r *LedgerRepository) Save(ctx context.Context, entries []models.LedgerEntry) error {
	return r.table.save(ctx, entries)
}

func decodeLedgerEntry(row map[string]string) (models.LedgerEntry, error) {
	at, err := ParseTimestamp(row["Time"])
	if err != nil {
		return models.LedgerEntry{}, err
	}
	delta, err := parseWhole(row["Point_Change"])
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return models.LedgerEntry{
		Time:        at,
		Name:        strings.TrimSpace(row["Name"]),
		PointChange: delta,
		Comment:     cleanCell(row["Comments"]),
	}, nil
}

func encodeLedgerEntry(entry models.LedgerEntry) []string {
	return []string{
		FormatTimestamp(entry.Time),
		entry.Name,
		strconv.Itoa(entry.PointChange),
		entry.Comment,
	}
}

// cleanCell normalises empty markers left by spreadsheet tools.
func cleanCell(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "nan", "none", "null":
		return ""
	}
	return trimmed
}
