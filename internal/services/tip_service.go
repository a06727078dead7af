package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/cache"
	"github.com/petshop-baronesa/api/internal/repositories"
)

var (
	// ErrTipRepositoryMissing signals that the tip repository dependency is absent.
	ErrTipRepositoryMissing = errors.New("tip service: tip repository is not configured")
	// ErrTipInvalidInput marks validation failures on tip writes.
	ErrTipInvalidInput = errors.New("tip service: invalid input")
	// ErrTipNotFound marks a missing tip.
	ErrTipNotFound = errors.New("tip service: tip not found")
)

const tipSnapshotKey = "dicas"

// TipServiceDeps groups constructor parameters for the tip service.
type TipServiceDeps struct {
	Tips     repositories.TipRepository
	Snapshot *cache.TTLCache[[]Tip]
	Errors   ErrorLogService
	Clock    func() time.Time
	IDFunc   func() string
}

type tipService struct {
	tips     repositories.TipRepository
	snapshot *cache.TTLCache[[]Tip]
	errlog   ErrorLogService
	policy   *bluemonday.Policy
	clock    func() time.Time
	newID    func() string
}

// NewTipService constructs the tip service with the supplied dependencies.
// Tip content passes through bluemonday's UGC policy on every write.
func NewTipService(deps TipServiceDeps) (TipService, error) {
	if deps.Tips == nil {
		return nil, ErrTipRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDFunc
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &tipService{
		tips:     deps.Tips,
		snapshot: deps.Snapshot,
		errlog:   deps.Errors,
		policy:   bluemonday.UGCPolicy(),
		clock:    func() time.Time { return clock().UTC() },
		newID:    newID,
	}, nil
}

// ListTips returns tips, falling back to the last snapshot when the backend
// is unavailable.
func (s *tipService) ListTips(ctx context.Context, publishedOnly bool) ([]Tip, error) {
	tips, err := s.tips.List(ctx, publishedOnly)
	if err != nil {
		if isUnavailable(err) && s.snapshot != nil {
			if cached, ok := s.snapshot.Get(snapshotKey(tipSnapshotKey, publishedOnly)); ok {
				return cached, nil
			}
		}
		s.record(ctx, "dicas.list", err)
		return nil, err
	}

	if s.snapshot != nil {
		s.snapshot.Set(snapshotKey(tipSnapshotKey, publishedOnly), tips)
	}
	return tips, nil
}

func (s *tipService) GetTip(ctx context.Context, tipID string) (Tip, error) {
	tipID = strings.TrimSpace(tipID)
	if tipID == "" {
		return Tip{}, fmt.Errorf("%w: tip id is required", ErrTipInvalidInput)
	}
	tip, err := s.tips.FindByID(ctx, tipID)
	if err != nil {
		if isNotFound(err) {
			return Tip{}, ErrTipNotFound
		}
		s.record(ctx, "dicas.get", err)
		return Tip{}, err
	}
	return tip, nil
}

func (s *tipService) CreateTip(ctx context.Context, input TipInput) (Tip, error) {
	if err := validateTipInput(input); err != nil {
		return Tip{}, err
	}

	now := s.clock()
	tip := s.tipFromInput(input)
	tip.ID = s.newID()
	tip.Status = domain.TipStatusDraft
	tip.CreatedAt = now
	tip.UpdatedAt = now
	if tip.Date.IsZero() {
		tip.Date = now
	}

	if err := s.tips.Insert(ctx, tip); err != nil {
		s.record(ctx, "dicas.create", err)
		return Tip{}, err
	}
	s.invalidate()
	return tip, nil
}

func (s *tipService) UpdateTip(ctx context.Context, tipID string, input TipInput) (Tip, error) {
	tipID = strings.TrimSpace(tipID)
	if tipID == "" {
		return Tip{}, fmt.Errorf("%w: tip id is required", ErrTipInvalidInput)
	}
	if err := validateTipInput(input); err != nil {
		return Tip{}, err
	}

	existing, err := s.tips.FindByID(ctx, tipID)
	if err != nil {
		if isNotFound(err) {
			return Tip{}, ErrTipNotFound
		}
		s.record(ctx, "dicas.update", err)
		return Tip{}, err
	}

	tip := s.tipFromInput(input)
	tip.ID = existing.ID
	// Content edits do not alter publication state.
	tip.Status = existing.Status
	tip.CreatedAt = existing.CreatedAt
	tip.UpdatedAt = s.clock()
	if tip.Date.IsZero() {
		tip.Date = existing.Date
	}

	if err := s.tips.Update(ctx, tip); err != nil {
		s.record(ctx, "dicas.update", err)
		return Tip{}, err
	}
	s.invalidate()
	return tip, nil
}

// SetTipStatus toggles publication independently of content edits.
func (s *tipService) SetTipStatus(ctx context.Context, tipID string, status string) (Tip, error) {
	tipID = strings.TrimSpace(tipID)
	if tipID == "" {
		return Tip{}, fmt.Errorf("%w: tip id is required", ErrTipInvalidInput)
	}
	status = strings.TrimSpace(status)
	if status != domain.TipStatusDraft && status != domain.TipStatusPublished {
		return Tip{}, fmt.Errorf("%w: status must be %s or %s", ErrTipInvalidInput, domain.TipStatusDraft, domain.TipStatusPublished)
	}

	tip, err := s.tips.FindByID(ctx, tipID)
	if err != nil {
		if isNotFound(err) {
			return Tip{}, ErrTipNotFound
		}
		s.record(ctx, "dicas.status", err)
		return Tip{}, err
	}

	tip.Status = status
	tip.UpdatedAt = s.clock()
	if err := s.tips.Update(ctx, tip); err != nil {
		s.record(ctx, "dicas.status", err)
		return Tip{}, err
	}
	s.invalidate()
	return tip, nil
}

func (s *tipService) DeleteTip(ctx context.Context, tipID string) error {
	tipID = strings.TrimSpace(tipID)
	if tipID == "" {
		return fmt.Errorf("%w: tip id is required", ErrTipInvalidInput)
	}
	if err := s.tips.Delete(ctx, tipID); err != nil {
		if isNotFound(err) {
			return ErrTipNotFound
		}
		s.record(ctx, "dicas.delete", err)
		return err
	}
	s.invalidate()
	return nil
}

func (s *tipService) tipFromInput(input TipInput) domain.Tip {
	tags := make([]string, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return domain.Tip{
		Title:    strings.TrimSpace(input.Title),
		Category: strings.TrimSpace(input.Category),
		Date:     input.Date,
		Image:    strings.TrimSpace(input.Image),
		Summary:  strings.TrimSpace(input.Summary),
		Content:  s.policy.Sanitize(input.Content),
		Tags:     tags,
	}
}

func (s *tipService) invalidate() {
	if s.snapshot != nil {
		s.snapshot.Purge()
	}
}

func (s *tipService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func validateTipInput(input TipInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrTipInvalidInput)
	}
	if strings.TrimSpace(input.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrTipInvalidInput)
	}
	return nil
}
