package service

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/logger"
)

// Log tail limits and messages.
const (
	MaxLogHours          = 168
	DefaultLogHours      = 24
	DefaultLogRetention  = 72 * time.Hour
	LogMissingMessage    = "Log file does not exist."
	LogEmptyMessage      = "Log file is empty."
	legacyLogTimeLayout  = "2006-01-02 15:04:05,000"
	maxLogLineBytes      = 1 << 20
	logLineScanBufferLen = 64 * 1024
)

// LogService reads and trims the bot log file written by pkg/logger.
type LogService struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewLogService constructs a tailer for the log file at path.
func NewLogService(path string, logger *zap.Logger) *LogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogService{path: path, logger: logger, now: time.Now}
}

type timedLine struct {
	at   time.Time
	text string
}

// Recent returns the lines logged within the past hours, most recent first. A missing, empty or
// quiet log yields an excerpt with Message set and no lines.
func (s *LogService) Recent(hours int) (*models.LogExcerpt, error) {
	if hours <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Hours must be a positive number.")
	}
	if hours > MaxLogHours {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Cannot retrieve more than %d hours (1 week) of logs.", MaxLogHours))
	}

	excerpt := &models.LogExcerpt{Hours: hours, Lines: []string{}}
	lines, err := s.readLines()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			excerpt.Message = LogMissingMessage
			return excerpt, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read log file")
	}
	if len(lines) == 0 {
		excerpt.Message = LogEmptyMessage
		return excerpt, nil
	}

	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)
	recent := make([]timedLine, 0)
	for _, line := range lines {
		at, ok := ParseLogTime(line)
		if !ok || at.Before(cutoff) {
			continue
		}
		recent = append(recent, timedLine{at: at, text: line})
	}
	if len(recent) == 0 {
		excerpt.Message = fmt.Sprintf("No logs found from the past %d hours.", hours)
		return excerpt, nil
	}

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].at.After(recent[j].at) })
	for _, line := range recent {
		excerpt.Lines = append(excerpt.Lines, line.text)
	}
	return excerpt, nil
}

// CleanOld drops lines older than maxAge and returns how many were removed. Lines without a
// recognisable timestamp are kept. The file is rewritten in place so the logger's append handle
// stays valid.
func (s *LogService) CleanOld(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = DefaultLogRetention
	}
	lines, err := s.readLines()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("no log file found to clean", zap.String("path", s.path))
			return 0, nil
		}
		return 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read log file")
	}
	if len(lines) == 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-maxAge)
	var kept bytes.Buffer
	removed := 0
	for _, line := range lines {
		if at, ok := ParseLogTime(line); ok && at.Before(cutoff) {
			removed++
			continue
		}
		kept.WriteString(line)
		kept.WriteByte('\n')
	}
	if removed == 0 {
		return 0, nil
	}
	if err := os.WriteFile(s.path, kept.Bytes(), 0o644); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to rewrite log file")
	}
	s.logger.Info("cleaned old log entries", zap.Int("removed", removed), zap.Duration("max_age", maxAge))
	return removed, nil
}

// Size reports the log file size in human readable form.
func (s *LogService) Size() (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", appErrors.Clone(appErrors.ErrNotFound, LogMissingMessage)
		}
		return "", appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to stat log file")
	}
	return HumanSize(info.Size()), nil
}

// HumanSize formats n bytes with binary units.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// ParseLogTime extracts the timestamp of a JSON or console zap line, or of a legacy
// "2006-01-02 15:04:05,000 - ..." line.
func ParseLogTime(line string) (time.Time, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return time.Time{}, false
	}
	if strings.HasPrefix(line, "{") {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return time.Time{}, false
		}
		var raw string
		if err := json.Unmarshal(entry[logger.TimeKey], &raw); err != nil {
			return time.Time{}, false
		}
		at, err := time.Parse(logger.TimeLayout, raw)
		return at, err == nil
	}
	if idx := strings.IndexByte(line, '\t'); idx > 0 {
		if at, err := time.Parse(logger.TimeLayout, line[:idx]); err == nil {
			return at, true
		}
	}
	if idx := strings.Index(line, " - "); idx > 0 {
		if at, err := time.ParseInLocation(legacyLogTimeLayout, strings.TrimSpace(line[:idx]), time.Local); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

func (s *LogService) readLines() ([]string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, logLineScanBufferLen), maxLogLineBytes)
	lines := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
