package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/petshop-baronesa/api/internal/platform/httpx"
	"github.com/petshop-baronesa/api/internal/repositories"
	"github.com/petshop-baronesa/api/internal/services"
)

// writeServiceError maps service sentinels onto the JSON error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, services.ErrCatalogNotFound),
		errors.Is(err, services.ErrSlideNotFound),
		errors.Is(err, services.ErrTipNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
		return
	case errors.Is(err, services.ErrCartItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", err.Error(), http.StatusNotFound))
		return
	case errors.Is(err, services.ErrCatalogInvalidInput),
		errors.Is(err, services.ErrSlideInvalidInput),
		errors.Is(err, services.ErrTipInvalidInput),
		errors.Is(err, services.ErrPricingInvalidInput),
		errors.Is(err, services.ErrCartInvalidInput),
		errors.Is(err, services.ErrBookingInvalidInput),
		errors.Is(err, services.ErrMediaInvalidInput),
		errors.Is(err, services.ErrAuthorizationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", err.Error(), http.StatusUnprocessableEntity))
		return
	}

	var estimateErr *services.EstimateError
	if errors.As(err, &estimateErr) {
		httpx.WriteError(ctx, w, httpx.NewError("estimate_invalid", estimateErr.Error(), http.StatusUnprocessableEntity))
		return
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
		httpx.WriteError(ctx, w, httpx.NewError("backend_unavailable", "data backend is unavailable", http.StatusServiceUnavailable))
		return
	}

	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
}
