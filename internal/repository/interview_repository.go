package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

// InterviewRepository persists interview records in interviews.csv.
type InterviewRepository struct {
	table *flatTable[models.InterviewEntry]
}

// NewInterviewRepository constructs the repository.
func NewInterviewRepository(path string) *InterviewRepository {
	return &InterviewRepository{table: &flatTable[models.InterviewEntry]{
		path:    path,
		columns: models.InterviewColumns,
		decode:  decodeInterviewEntry,
		encode:  encodeInterviewEntry,
	}}
}

// Path returns the interview file location.
func (r *InterviewRepository) Path() string {
	return r.table.path
}

// Load reads every interview row.
func (r *InterviewRepository) Load(ctx context.Context) (LoadResult[models.InterviewEntry], error) {
	return r.table.load(ctx)
}

// Save rewrites the interview log with entries.
func (r *InterviewRepository) Save(ctx context.Context, entries []models.InterviewEntry) error {
	return r.table.save(ctx, entries)
}

func decodeInterviewEntry(row map[string]string) (models.InterviewEntry, error) {
	at, err := ParseTimestamp(row["Time"])
	if err != nil {
		return models.InterviewEntry{}, err
	}
	quality, err := parseWhole(row["Quality"])
	if err != nil {
		return models.InterviewEntry{}, err
	}
	return models.InterviewEntry{
		Time:    at,
		Pledge:  strings.TrimSpace(row["Pledge"]),
		Brother: strings.TrimSpace(row["Brother"]),
		Quality: quality,
	}, nil
}

func encodeInterviewEntry(entry models.InterviewEntry) []string {
	return []string{
		FormatTimestamp(entry.Time),
		entry.Pledge,
		entry.Brother,
		strconv.Itoa(entry.Quality),
	}
}
