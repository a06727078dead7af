package services

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/repositories"
)

// ErrErrorLogRepositoryMissing signals that the error log repository dependency is absent.
var ErrErrorLogRepositoryMissing = errors.New("error log service: error log repository is not configured")

// ErrorLogServiceDeps groups constructor parameters for the error log service.
type ErrorLogServiceDeps struct {
	Entries repositories.ErrorLogRepository
	Logger  *zap.Logger
	Clock   func() time.Time
	IDFunc  func() string
}

type errorLogService struct {
	entries repositories.ErrorLogRepository
	logger  *zap.Logger
	clock   func() time.Time
	newID   func() string
}

// NewErrorLogService constructs the error log service with the supplied
// dependencies.
func NewErrorLogService(deps ErrorLogServiceDeps) (ErrorLogService, error) {
	if deps.Entries == nil {
		return nil, ErrErrorLogRepositoryMissing
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDFunc
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &errorLogService{
		entries: deps.Entries,
		logger:  logger,
		clock:   func() time.Time { return clock().UTC() },
		newID:   newID,
	}, nil
}

// Record appends an entry to the capped log. Recording is best effort: a
// broken log must never turn a degraded request into a failed one.
func (s *errorLogService) Record(ctx context.Context, scope string, err error) {
	if err == nil {
		return
	}

	entry := domain.ErrorLogEntry{
		ID:         s.newID(),
		Scope:      scope,
		Message:    err.Error(),
		OccurredAt: s.clock(),
	}

	if appendErr := s.entries.Append(ctx, entry); appendErr != nil {
		s.logger.Warn("error log append failed",
			zap.String("scope", scope),
			zap.Error(appendErr),
		)
	}
}

func (s *errorLogService) Recent(ctx context.Context, limit int) ([]domain.ErrorLogEntry, error) {
	if limit <= 0 || limit > domain.ErrorLogCap {
		limit = domain.ErrorLogCap
	}
	return s.entries.Recent(ctx, limit)
}
