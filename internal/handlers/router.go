package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/petshop-baronesa/api/internal/platform/httpx"
)

// RouteRegistrar mounts a group of endpoints on the given router.
type RouteRegistrar func(r chi.Router)

// RouterDeps collects everything the router mounts: the health probes, the
// global middleware chain, and one registrar per route group. A nil registrar
// answers 501 on its group, which keeps partially wired test setups honest.
type RouterDeps struct {
	Health      *HealthHandlers
	Middlewares []func(http.Handler) http.Handler

	Public   RouteRegistrar
	Me       RouteRegistrar
	Cart     RouteRegistrar
	Checkout RouteRegistrar
	Admin    RouteRegistrar
}

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 60 * time.Second
)

// NewRouter builds the chi router: health probes at the root, every API
// group under /api/v1, and JSON error envelopes for unmatched routes.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(requestTimeout))
	for _, mw := range deps.Middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	health := deps.Health
	if health == nil {
		health = NewHealthHandlers(nil)
	}
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	groups := []struct {
		path      string
		name      string
		registrar RouteRegistrar
	}{
		{"/public", "public", deps.Public},
		{"/me", "me", deps.Me},
		{"/cart", "cart", deps.Cart},
		{"/checkout", "checkout", deps.Checkout},
		{"/admin", "admin", deps.Admin},
	}
	r.Route(apiPrefix, func(api chi.Router) {
		for _, group := range groups {
			registrar := group.registrar
			if registrar == nil {
				registrar = notImplementedGroup(group.name)
			}
			api.Route(group.path, registrar)
		}
	})

	return r
}

func notImplementedGroup(name string) RouteRegistrar {
	return func(r chi.Router) {
		handler := func(w http.ResponseWriter, req *http.Request) {
			httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
		}
		r.HandleFunc("/", handler)
		r.HandleFunc("/*", handler)
		r.NotFound(handler)
		r.MethodNotAllowed(handler)
	}
}
