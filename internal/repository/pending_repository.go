package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

// PendingRepository persists point change requests awaiting review together with the
// sequence that numbers them.
type PendingRepository struct {
	table   *flatTable[models.PendingEntry]
	seqPath string
	seqMu   sync.Mutex
}

// NewPendingRepository constructs the repository.
func NewPendingRepository(path, seqPath string) *PendingRepository {
	return &PendingRepository{
		table: &flatTable[models.PendingEntry]{
			path:    path,
			columns: models.PendingColumns,
			decode:  decodePendingEntry,
			encode:  encodePendingEntry,
		},
		seqPath: seqPath,
	}
}

// Path returns the pending file location.
func (r *PendingRepository) Path() string {
	return r.table.path
}

// Load reads every pending row.
func (r *PendingRepository) Load(ctx context.Context) (LoadResult[models.PendingEntry], error) {
	return r.table.load(ctx)
}

// Save rewrites the pending queue with entries.
func (r *PendingRepository) Save(ctx context.Context, entries []models.PendingEntry) error {
	return r.table.save(ctx, entries)
}

// NextID reserves and persists the next request identifier. The result is greater than both
// the stored sequence and floor, so identifiers never repeat even if the sequence file is lost
// while requests are still queued.
func (r *PendingRepository) NextID(ctx context.Context, floor int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.seqMu.Lock()
	defer r.seqMu.Unlock()

	current, err := r.readSequenceLocked()
	if err != nil {
		return 0, err
	}
	if floor > current {
		current = floor
	}
	next := current + 1
	if err := writeFileAtomic(r.seqPath, []byte(strconv.FormatInt(next, 10)+"\n")); err != nil {
		return 0, fmt.Errorf("persist pending sequence: %w", err)
	}
	return next, nil
}

// Sequence returns the last issued identifier, zero when none has been issued.
func (r *PendingRepository) Sequence(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.seqMu.Lock()
	defer r.seqMu.Unlock()
	return r.readSequenceLocked()
}

// SetSequence stores value as the last issued identifier.
func (r *PendingRepository) SetSequence(ctx context.Context, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.seqMu.Lock()
	defer r.seqMu.Unlock()
	return writeFileAtomic(r.seqPath, []byte(strconv.FormatInt(value, 10)+"\n"))
}

func (r *PendingRepository) readSequenceLocked() (int64, error) {
	raw, err := os.ReadFile(r.seqPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pending sequence: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: pending sequence %q", ErrMalformedTable, trimmed)
	}
	return value, nil
}

// MaxPendingID returns the largest identifier in entries.
func MaxPendingID(entries []models.PendingEntry) int64 {
	var max int64
	for _, entry := range entries {
		if entry.ID > max {
			max = entry.ID
		}
	}
	return max
}

func decodePendingEntry(row map[string]string) (models.PendingEntry, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(row["ID"]), 10, 64)
	if err != nil || id <= 0 {
		return models.PendingEntry{}, fmt.Errorf("invalid pending id %q", row["ID"])
	}
	at, err := ParseTimestamp(row["Time"])
	if err != nil {
		return models.PendingEntry{}, err
	}
	delta, err := strconv.ParseFloat(strings.TrimSpace(row["Point_Change"]), 64)
	if err != nil || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return models.PendingEntry{}, fmt.Errorf("invalid point change %q", row["Point_Change"])
	}
	return models.PendingEntry{
		ID:          id,
		Time:        at,
		Name:        strings.TrimSpace(row["Name"]),
		PointChange: delta,
		Comment:     cleanCell(row["Comments"]),
		Requester:   cleanCell(row["Requester"]),
	}, nil
}

func encodePendingEntry(entry models.PendingEntry) []string {
	return []string{
		strconv.FormatInt(entry.ID, 10),
		FormatTimestamp(entry.Time),
		entry.Name,
		formatNumber(entry.PointChange),
		entry.Comment,
		entry.Requester,
	}
}
