package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/repositories"
)

// BuildInfo carries the build metadata reported by the readiness endpoint.
type BuildInfo struct {
	Version     string
	Environment string
	StartedAt   time.Time
}

// SystemServiceDeps bundles collaborators required to construct a system service.
type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Clock            func() time.Time
	Build            BuildInfo
}

type systemService struct {
	healthRepo repositories.HealthRepository
	clock      func() time.Time
	build      BuildInfo
}

var _ SystemService = (*systemService)(nil)

// NewSystemService wires the health report pipeline. The build's StartedAt
// defaults to construction time so uptime is always computable.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}

	svc := &systemService{healthRepo: deps.HealthRepository, build: deps.Build}

	base := deps.Clock
	if base == nil {
		base = time.Now
	}
	svc.clock = func() time.Time { return base().UTC() }

	if svc.build.StartedAt.IsZero() {
		svc.build.StartedAt = svc.clock()
	}
	return svc, nil
}

// Health collects the dependency checks and enriches the report with build
// metadata wherever the repository left a field blank.
func (s *systemService) Health(ctx context.Context) (SystemHealthReport, error) {
	if ctx == nil {
		return SystemHealthReport{}, errors.New("system service: context is required")
	}

	report, err := s.healthRepo.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}
	s.enrich(&report)
	return report, nil
}

func (s *systemService) enrich(report *SystemHealthReport) {
	now := s.clock()

	switch {
	case report.GeneratedAt.IsZero():
		report.GeneratedAt = now
	default:
		report.GeneratedAt = report.GeneratedAt.UTC()
	}

	if strings.TrimSpace(report.Version) == "" {
		report.Version = s.build.Version
	}
	if strings.TrimSpace(report.Environment) == "" {
		report.Environment = s.build.Environment
	}
	if report.Uptime <= 0 && !s.build.StartedAt.IsZero() {
		report.Uptime = now.Sub(s.build.StartedAt)
	}

	if report.Checks == nil {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	if report.Status == "" {
		report.Status = rollupStatus(report.Checks)
	}
}

// rollupStatus folds per-check statuses into one: any error check fails the
// whole report, any non-ok check degrades it.
func rollupStatus(checks map[string]domain.SystemHealthCheck) domain.HealthStatus {
	degraded := false
	for _, check := range checks {
		if check.Status == domain.HealthStatusError {
			return domain.HealthStatusError
		}
		if check.Status != domain.HealthStatusOK && check.Status != "" {
			degraded = true
		}
	}
	if degraded {
		return domain.HealthStatusDegraded
	}
	return domain.HealthStatusOK
}
