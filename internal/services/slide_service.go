package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/cache"
	"github.com/petshop-baronesa/api/internal/repositories"
)

var (
	// ErrSlideRepositoryMissing signals that the slide repository dependency is absent.
	ErrSlideRepositoryMissing = errors.New("slide service: slide repository is not configured")
	// ErrSlideInvalidInput marks validation failures on slide writes.
	ErrSlideInvalidInput = errors.New("slide service: invalid input")
	// ErrSlideNotFound marks a missing slide.
	ErrSlideNotFound = errors.New("slide service: slide not found")
)

const slideSnapshotKey = "slides"

// SlideServiceDeps groups constructor parameters for the slide service.
type SlideServiceDeps struct {
	Slides   repositories.SlideRepository
	Snapshot *cache.TTLCache[[]Slide]
	Errors   ErrorLogService
	Clock    func() time.Time
	IDFunc   func() string
}

type slideService struct {
	slides   repositories.SlideRepository
	snapshot *cache.TTLCache[[]Slide]
	errlog   ErrorLogService
	clock    func() time.Time
	newID    func() string
}

// NewSlideService constructs the slide service with the supplied dependencies.
func NewSlideService(deps SlideServiceDeps) (SlideService, error) {
	if deps.Slides == nil {
		return nil, ErrSlideRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDFunc
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &slideService{
		slides:   deps.Slides,
		snapshot: deps.Snapshot,
		errlog:   deps.Errors,
		clock:    func() time.Time { return clock().UTC() },
		newID:    newID,
	}, nil
}

// ListSlides returns slides ordered for display. When the backend is
// unavailable the last successful snapshot is served instead.
func (s *slideService) ListSlides(ctx context.Context, activeOnly bool) ([]Slide, error) {
	slides, err := s.slides.List(ctx, activeOnly)
	if err != nil {
		if isUnavailable(err) && s.snapshot != nil {
			if cached, ok := s.snapshot.Get(snapshotKey(slideSnapshotKey, activeOnly)); ok {
				return cached, nil
			}
		}
		s.record(ctx, "slides.list", err)
		return nil, err
	}

	if s.snapshot != nil {
		s.snapshot.Set(snapshotKey(slideSnapshotKey, activeOnly), slides)
	}
	return slides, nil
}

// UpsertSlide creates or replaces the slide occupying slideNumber.
func (s *slideService) UpsertSlide(ctx context.Context, slideNumber int, input SlideInput) (Slide, error) {
	if slideNumber <= 0 {
		return Slide{}, fmt.Errorf("%w: slide number must be positive", ErrSlideInvalidInput)
	}
	if strings.TrimSpace(input.Image) == "" {
		return Slide{}, fmt.Errorf("%w: image is required", ErrSlideInvalidInput)
	}

	slide := domain.Slide{
		SlideNumber: slideNumber,
		Title:       strings.TrimSpace(input.Title),
		Image:       strings.TrimSpace(input.Image),
		IsActive:    input.IsActive,
		Order:       input.Order,
		UpdatedAt:   s.clock(),
	}

	existing, err := s.slides.FindByNumber(ctx, slideNumber)
	switch {
	case err == nil:
		slide.ID = existing.ID
	case isNotFound(err):
		slide.ID = s.newID()
	default:
		s.record(ctx, "slides.upsert", err)
		return Slide{}, err
	}

	saved, err := s.slides.Save(ctx, slide)
	if err != nil {
		s.record(ctx, "slides.upsert", err)
		return Slide{}, err
	}

	if s.snapshot != nil {
		s.snapshot.Purge()
	}
	return saved, nil
}

func (s *slideService) DeleteSlide(ctx context.Context, slideID string) error {
	slideID = strings.TrimSpace(slideID)
	if slideID == "" {
		return fmt.Errorf("%w: slide id is required", ErrSlideInvalidInput)
	}
	if err := s.slides.Delete(ctx, slideID); err != nil {
		if isNotFound(err) {
			return ErrSlideNotFound
		}
		s.record(ctx, "slides.delete", err)
		return err
	}
	if s.snapshot != nil {
		s.snapshot.Purge()
	}
	return nil
}

func (s *slideService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func snapshotKey(base string, activeOnly bool) string {
	if activeOnly {
		return base + ":active"
	}
	return base + ":all"
}
