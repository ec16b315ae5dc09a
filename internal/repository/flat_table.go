package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

// ErrMalformedTable marks a flat file that exists but cannot be decoded.
var ErrMalformedTable = errors.New("malformed table")

// LoadResult carries a decoded table together with how it was obtained. Cause is set when
// Status is LoadRecoveredEmpty. Skipped lists rows that could not be decoded; they are left
// out of Rows but stay in the file.
type LoadResult[T any] struct {
	Rows    []T
	Status  models.LoadStatus
	Cause   error
	Skipped []error
}

// flatTable is a CSV file with a header row that is always read and rewritten in full.
type flatTable[T any] struct {
	path    string
	columns []string
	decode  func(row map[string]string) (T, error)
	encode  func(T) []string
	mu      sync.Mutex
}

func (t *flatTable[T]) exists() bool {
	_, err := os.Stat(t.path)
	return err == nil
}

// load reads every row. A missing file is created with the canonical header; a file that is
// unreadable or lacks a required column yields an empty table with status LoadRecoveredEmpty.
// Rows that fail to decode are reported in Skipped. The returned error is reserved for failing
// to create a missing file.
func (t *flatTable[T]) load(ctx context.Context) (LoadResult[T], error) {
	if err := ctx.Err(); err != nil {
		return LoadResult[T]{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeCSV(t.path, t.columns, nil); err != nil {
			return LoadResult[T]{Rows: []T{}, Status: models.LoadCreated}, err
		}
		return LoadResult[T]{Rows: []T{}, Status: models.LoadCreated}, nil
	}
	if err != nil {
		return recovered[T](fmt.Errorf("open %s: %w", t.path, err)), nil
	}
	defer file.Close() //nolint:errcheck

	header, records, err := readCSV(file)
	if err != nil {
		return recovered[T](fmt.Errorf("read %s: %w", t.path, err)), nil
	}
	index, err := columnIndex(header, t.columns)
	if err != nil {
		return recovered[T](fmt.Errorf("%s: %w", t.path, err)), nil
	}

	result := LoadResult[T]{Rows: make([]T, 0, len(records)), Status: models.LoadOK}
	for i, record := range records {
		row, err := t.decode(t.fields(index, record))
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Errorf("%s row %d: %w", t.path, i+2, err))
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// save replaces the file contents with rows. Rows already on disk that do not decode are kept
// ahead of rows, reordered into the canonical columns.
func (t *flatTable[T]) save(ctx context.Context, rows []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	records := t.undecodableLocked()
	for _, row := range rows {
		records = append(records, t.encode(row))
	}
	return writeCSV(t.path, t.columns, records)
}

func (t *flatTable[T]) fields(index map[string]int, record []string) map[string]string {
	fields := make(map[string]string, len(t.columns))
	for _, col := range t.columns {
		if pos := index[col]; pos < len(record) {
			fields[col] = record[pos]
		}
	}
	return fields
}

// undecodableLocked returns the raw rows of the current file that fail to decode. A missing or
// unparseable file has none.
func (t *flatTable[T]) undecodableLocked() [][]string {
	file, err := os.Open(t.path)
	if err != nil {
		return nil
	}
	defer file.Close() //nolint:errcheck

	header, records, err := readCSV(file)
	if err != nil {
		return nil
	}
	index, err := columnIndex(header, t.columns)
	if err != nil {
		return nil
	}
	var kept [][]string
	for _, record := range records {
		fields := t.fields(index, record)
		if _, err := t.decode(fields); err == nil {
			continue
		}
		raw := make([]string, len(t.columns))
		for i, col := range t.columns {
			raw[i] = fields[col]
		}
		kept = append(kept, raw)
	}
	return kept
}

func recovered[T any](cause error) LoadResult[T] {
	return LoadResult[T]{Rows: []T{}, Status: models.LoadRecoveredEmpty, Cause: cause}
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}
	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	}
	return header, records[1:], nil
}

func columnIndex(header, required []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		if _, seen := index[col]; !seen {
			index[col] = i
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedTable, col)
		}
	}
	return index, nil
}

// writeCSV encodes header and records and atomically replaces path with the result.
func writeCSV(path string, header []string, records [][]string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("encode header for %s: %w", path, err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("encode rows for %s: %w", path, err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic writes data to a temp file beside path, syncs it and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// FormatTimestamp renders t as float seconds since the epoch with microsecond precision.
func FormatTimestamp(t time.Time) string {
	t = t.Truncate(time.Microsecond)
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

// ParseTimestamp reads float seconds since the epoch.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	secPart, fracPart, hasFrac := strings.Cut(raw, ".")
	if !strings.ContainsAny(raw, "eE") && !strings.HasPrefix(raw, "-") {
		sec, err := strconv.ParseInt(secPart, 10, 64)
		if err == nil {
			nanos := int64(0)
			if hasFrac && fracPart != "" {
				digits := fracPart
				if len(digits) > 9 {
					digits = digits[:9]
				}
				digits += strings.Repeat("0", 9-len(digits))
				nanos, err = strconv.ParseInt(digits, 10, 64)
				if err != nil {
					return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
				}
			}
			return time.Unix(sec, nanos).UTC(), nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}

// parseWhole reads an integer column that may have been written as a float ("5.0").
func parseWhole(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	return int(f), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
