package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

// SearchLimit caps autocomplete results.
const SearchLimit = 25

type rosterStore interface {
	FileExists() bool
	List(ctx context.Context) ([]string, error)
	Names(ctx context.Context) ([]string, error)
	Append(ctx context.Context, name string) error
	Rewrite(ctx context.Context, names []string) error
}

// AddPledgeRequest is validated before a pledge joins the roster.
type AddPledgeRequest struct {
	Name string `validate:"required,max=50,pledge_name"`
}

var pledgeNameMessages = map[string]string{
	"Name.required":    "pledge name cannot be empty",
	"Name.max":         "pledge name is too long, keep it under 50 characters",
	"Name.pledge_name": "pledge name can only contain letters, numbers, and spaces",
}

// RosterService manages the list of active pledges.
type RosterService struct {
	repo      rosterStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewRosterService constructs the service.
func NewRosterService(repo rosterStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	RegisterLedgerValidations(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Add appends a new pledge. The name is trimmed before validation.
func (s *RosterService) Add(ctx context.Context, name string) (string, error) {
	req := AddPledgeRequest{Name: strings.TrimSpace(name)}
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err, pledgeNameMessages)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.repo.Names(ctx)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read roster")
	}
	for _, existing := range names {
		if existing == req.Name {
			return "", appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("pledge %s already exists", req.Name))
		}
	}
	if err := s.repo.Append(ctx, req.Name); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save roster")
	}
	s.cache.InvalidateLedger(ctx)
	s.logger.Info("pledge added", zap.String("pledge", req.Name))
	return req.Name, nil
}

// Remove deletes a pledge and verifies the roster no longer contains it. Ledger history for the
// pledge is kept.
func (s *RosterService) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.repo.Names(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read roster")
	}
	remaining := make([]string, 0, len(names))
	found := false
	for _, existing := range names {
		if existing == name {
			found = true
			continue
		}
		remaining = append(remaining, existing)
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("pledge %s not found", name))
	}
	if err := s.repo.Rewrite(ctx, remaining); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save roster")
	}
	s.cache.InvalidateLedger(ctx)

	after, err := s.repo.Names(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to verify roster")
	}
	for _, existing := range after {
		if existing == name {
			s.logger.Error("pledge still present after removal", zap.String("pledge", name))
			return appErrors.Clone(appErrors.ErrConsistency, fmt.Sprintf("failed to delete pledge %s", name))
		}
	}
	s.logger.Info("pledge removed", zap.String("pledge", name))
	return nil
}

// List returns roster names in insertion order.
func (s *RosterService) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.Names(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read roster")
	}
	return names, nil
}

// Exists reports whether name is on the roster (exact match).
func (s *RosterService) Exists(ctx context.Context, name string) (bool, error) {
	names, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range names {
		if existing == name {
			return true, nil
		}
	}
	return false, nil
}

// Search returns roster names containing query, case-insensitively, prefix matches first.
func (s *RosterService) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}
	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	matches := make([]string, 0, len(names))
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), needle) {
			matches = append(matches, name)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(matches[i]), needle)
		pj := strings.HasPrefix(strings.ToLower(matches[j]), needle)
		return pi && !pj
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
