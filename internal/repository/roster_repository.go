package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RosterRepository persists pledge names as a newline-delimited file.
type RosterRepository struct {
	path string
	mu   sync.Mutex
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(path string) *RosterRepository {
	return &RosterRepository{path: path}
}

// Path returns the roster file location.
func (r *RosterRepository) Path() string {
	return r.path
}

// FileExists reports whether the roster file is present on disk.
func (r *RosterRepository) FileExists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

// List returns every line of the roster in file order. A missing file yields an empty roster.
// Lines are returned untrimmed except for the line terminator; blank lines are included so
// callers can decide how to report them.
func (r *RosterRepository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readLocked()
}

// Names returns the non-blank, trimmed roster names in file order.
func (r *RosterRepository) Names(ctx context.Context) ([]string, error) {
	lines, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Append adds name as a new line, creating the file when needed.
func (r *RosterRepository) Append(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("prepare roster dir: %w", err)
	}
	prefix := ""
	if raw, err := os.ReadFile(r.path); err == nil && len(raw) > 0 && raw[len(raw)-1] != '\n' {
		prefix = "\n"
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read roster: %w", err)
	}

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	if _, err := file.WriteString(prefix + name + "\n"); err != nil {
		_ = file.Close()
		return fmt.Errorf("append roster: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close roster: %w", err)
	}
	return nil
}

// Rewrite replaces the roster with names.
func (r *RosterRepository) Rewrite(ctx context.Context, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var builder strings.Builder
	for _, name := range names {
		builder.WriteString(name)
		builder.WriteByte('\n')
	}
	return writeFileAtomic(r.path, []byte(builder.String()))
}

func (r *RosterRepository) readLocked() ([]string, error) {
	file, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer file.Close() //nolint:errcheck

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return lines, nil
}
