package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/platform/cache"
)

type stubTipRepository struct {
	tips    map[string]domain.Tip
	listErr error
	updated []domain.Tip
}

func newStubTipRepository() *stubTipRepository {
	return &stubTipRepository{tips: make(map[string]domain.Tip)}
}

func (s *stubTipRepository) List(_ context.Context, publishedOnly bool) ([]domain.Tip, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Tip
	for _, tip := range s.tips {
		if publishedOnly && !tip.Published() {
			continue
		}
		out = append(out, tip)
	}
	return out, nil
}

func (s *stubTipRepository) FindByID(_ context.Context, tipID string) (domain.Tip, error) {
	tip, ok := s.tips[tipID]
	if !ok {
		return domain.Tip{}, errStubNotFound
	}
	return tip, nil
}

func (s *stubTipRepository) Insert(_ context.Context, tip domain.Tip) error {
	s.tips[tip.ID] = tip
	return nil
}

func (s *stubTipRepository) Update(_ context.Context, tip domain.Tip) error {
	if _, ok := s.tips[tip.ID]; !ok {
		return errStubNotFound
	}
	s.tips[tip.ID] = tip
	s.updated = append(s.updated, tip)
	return nil
}

func (s *stubTipRepository) Delete(_ context.Context, tipID string) error {
	if _, ok := s.tips[tipID]; !ok {
		return errStubNotFound
	}
	delete(s.tips, tipID)
	return nil
}

func newTestTipService(t *testing.T, repo *stubTipRepository, snapshot *cache.TTLCache[[]Tip]) TipService {
	t.Helper()
	svc, err := NewTipService(TipServiceDeps{
		Tips:     repo,
		Snapshot: snapshot,
		Clock:    func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
		IDFunc:   func() string { return "tip-new" },
	})
	if err != nil {
		t.Fatalf("NewTipService: %v", err)
	}
	return svc
}

func TestCreateTipSanitizesContent(t *testing.T) {
	repo := newStubTipRepository()
	svc := newTestTipService(t, repo, nil)

	tip, err := svc.CreateTip(context.Background(), TipInput{
		Title:   "Banho em casa",
		Content: `<p>Use água morna.</p><script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("CreateTip: %v", err)
	}
	if strings.Contains(tip.Content, "<script>") {
		t.Fatalf("script tag survived sanitization: %q", tip.Content)
	}
	if !strings.Contains(tip.Content, "<p>") {
		t.Fatalf("benign markup was stripped: %q", tip.Content)
	}
	if tip.Status != domain.TipStatusDraft {
		t.Fatalf("new tips must start as drafts, got %q", tip.Status)
	}
}

func TestCreateTipValidation(t *testing.T) {
	svc := newTestTipService(t, newStubTipRepository(), nil)

	if _, err := svc.CreateTip(context.Background(), TipInput{Content: "x"}); !errors.Is(err, ErrTipInvalidInput) {
		t.Fatalf("expected invalid input for missing title, got %v", err)
	}
	if _, err := svc.CreateTip(context.Background(), TipInput{Title: "x"}); !errors.Is(err, ErrTipInvalidInput) {
		t.Fatalf("expected invalid input for missing content, got %v", err)
	}
}

func TestUpdateTipPreservesStatus(t *testing.T) {
	repo := newStubTipRepository()
	repo.tips["t1"] = domain.Tip{
		ID: "t1", Title: "Tosa de verão", Content: "Antes", Status: domain.TipStatusPublished,
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	svc := newTestTipService(t, repo, nil)

	updated, err := svc.UpdateTip(context.Background(), "t1", TipInput{Title: "Tosa de verão", Content: "Depois"})
	if err != nil {
		t.Fatalf("UpdateTip: %v", err)
	}
	if updated.Status != domain.TipStatusPublished {
		t.Fatalf("content edit must not change publication state, got %q", updated.Status)
	}
	if !updated.CreatedAt.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("createdAt must be preserved")
	}
	if updated.Content != "Depois" {
		t.Fatalf("content not updated: %q", updated.Content)
	}
}

func TestSetTipStatus(t *testing.T) {
	repo := newStubTipRepository()
	repo.tips["t1"] = domain.Tip{ID: "t1", Title: "Dica", Content: "x", Status: domain.TipStatusDraft}
	svc := newTestTipService(t, repo, nil)

	tip, err := svc.SetTipStatus(context.Background(), "t1", domain.TipStatusPublished)
	if err != nil {
		t.Fatalf("SetTipStatus: %v", err)
	}
	if !tip.Published() {
		t.Fatalf("expected published tip")
	}

	if _, err := svc.SetTipStatus(context.Background(), "t1", "archived"); !errors.Is(err, ErrTipInvalidInput) {
		t.Fatalf("expected invalid input for unknown status, got %v", err)
	}
	if _, err := svc.SetTipStatus(context.Background(), "missing", domain.TipStatusDraft); !errors.Is(err, ErrTipNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListTipsServesSnapshotWhenUnavailable(t *testing.T) {
	repo := newStubTipRepository()
	repo.tips["t1"] = domain.Tip{ID: "t1", Title: "Dica", Content: "x", Status: domain.TipStatusPublished}
	snapshot := cache.New[[]Tip](time.Minute)
	svc := newTestTipService(t, repo, snapshot)

	if _, err := svc.ListTips(context.Background(), true); err != nil {
		t.Fatalf("ListTips: %v", err)
	}

	repo.listErr = errStubUnavailable
	tips, err := svc.ListTips(context.Background(), true)
	if err != nil {
		t.Fatalf("expected snapshot fallback, got %v", err)
	}
	if len(tips) != 1 || tips[0].ID != "t1" {
		t.Fatalf("unexpected snapshot contents %#v", tips)
	}
}

func TestDeleteTipInvalidatesSnapshot(t *testing.T) {
	repo := newStubTipRepository()
	repo.tips["t1"] = domain.Tip{ID: "t1", Title: "Dica", Content: "x", Status: domain.TipStatusPublished}
	snapshot := cache.New[[]Tip](time.Minute)
	svc := newTestTipService(t, repo, snapshot)

	if _, err := svc.ListTips(context.Background(), true); err != nil {
		t.Fatalf("ListTips: %v", err)
	}
	if err := svc.DeleteTip(context.Background(), "t1"); err != nil {
		t.Fatalf("DeleteTip: %v", err)
	}
	if snapshot.Len() != 0 {
		t.Fatalf("expected snapshot purge after delete")
	}
	if err := svc.DeleteTip(context.Background(), "t1"); !errors.Is(err, ErrTipNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
