package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/activitypub"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/fedtag"
	"github.com/starford/ansuz/internal/metrics"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/nodeinfo"
	"github.com/starford/ansuz/internal/resolver"
	"github.com/starford/ansuz/internal/webfinger"
	"github.com/starford/ansuz/internal/webmodel"
)

// Directory is the subset of the user store the handlers read.
type Directory interface {
	resolver.UserFinder
	Ping(ctx context.Context) error
}

// Handler holds API route handlers.
type Handler struct {
	users    Directory
	resolver *resolver.Service
	net      resolver.Networking
	branding nodeinfo.Branding
	keys     *activitypub.Keys
	metrics  *metrics.Collector
}

// NewHandler creates a new Handler. m may be nil.
func NewHandler(users Directory, net resolver.Networking, branding nodeinfo.Branding, keys *activitypub.Keys, m *metrics.Collector) *Handler {
	return &Handler{
		users:    users,
		resolver: resolver.New(users, net, slog.Default()),
		net:      net,
		branding: branding,
		keys:     keys,
		metrics:  m,
	}
}

func (h *Handler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveWebFinger(outcome)
	}
}

// Live handles GET /health/live.
//
//	@Summary		Liveness probe
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health/live [get]
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. It fails while the directory is unreachable.
//
//	@Summary		Readiness probe
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	map[string]string
//	@Router			/health/ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Ping(r.Context()); err != nil {
		slog.Error("readiness ping failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WebFinger handles GET /.well-known/webfinger.
//
//	@Summary		Resolve an account or actor URI
//	@Tags			discovery
//	@Produce		application/jrd+json
//	@Param			resource	query		string		true	"acct: identifier or URI"
//	@Param			rel			query		[]string	false	"Link relations to keep"
//	@Success		200			{object}	webfinger.Document
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Router			/.well-known/webfinger [get]
func (h *Handler) WebFinger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resource := q.Get("resource")
	if resource == "" {
		h.observe(metrics.OutcomeInvalid)
		writeJSON(w, http.StatusBadRequest, errorBody("resource is required"))
		return
	}

	doc, err := h.resolver.Resolve(r.Context(), resolver.Query{
		Resource: webfinger.ParseSubject(resource),
		Rels:     q["rel"],
	})
	switch {
	case err == nil:
		h.observe(metrics.OutcomeFound)
		writeTyped(w, http.StatusOK, webmodel.ContentJRD{}.String(), doc)
	case errors.Is(err, apperr.ErrInvalidInput):
		h.observe(metrics.OutcomeInvalid)
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		h.observe(metrics.OutcomeNotFound)
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		h.observe(metrics.OutcomeError)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// NodeInfoLinks handles GET /.well-known/nodeinfo.
//
//	@Summary		List the served NodeInfo schemas
//	@Tags			discovery
//	@Produce		json
//	@Success		200	{array}	nodeinfo.Link
//	@Router			/.well-known/nodeinfo [get]
func (h *Handler) NodeInfoLinks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nodeinfo.Links(h.net.BaseURL()))
}

// NodeInfo handles GET /nodeinfo/{version} for 2.0 and 2.1.
//
//	@Summary		Get the NodeInfo document of this server
//	@Tags			discovery
//	@Produce		json
//	@Param			version	path		string	true	"Schema version"	Enums(2.0, 2.1)
//	@Success		200		{object}	nodeinfo.NodeInfo
//	@Failure		404		{object}	errResponse
//	@Router			/nodeinfo/{version} [get]
func (h *Handler) NodeInfo(w http.ResponseWriter, r *http.Request) {
	version := chi.URLParam(r, "version")

	var doc nodeinfo.NodeInfo
	switch version {
	case nodeinfo.Version2_0:
		doc = nodeinfo.Build20(h.branding)
	case nodeinfo.Version2_1:
		doc = nodeinfo.Build21(h.branding)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("unknown nodeinfo version"))
		return
	}

	writeTyped(w, http.StatusOK, nodeinfo.ProfileContentType(version), doc)
}

// localUser looks up a local account by the {name} route parameter.
func (h *Handler) localUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	name := chi.URLParam(r, "name")
	if err := fedtag.Validate(name, "", false); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return nil, false
	}
	u, err := h.users.FindUserByTag(r.Context(), name, nil)
	if err != nil {
		slog.Error("find user failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return nil, false
	}
	if u == nil || !u.IsLocal() {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return nil, false
	}
	return u, true
}

// Actor handles GET /users/{name}.
//
//	@Summary		Get the ActivityPub actor of a local user
//	@Tags			activitypub
//	@Produce		application/activity+json
//	@Param			name	path		string	true	"Username"
//	@Success		200		{object}	activitypub.Person
//	@Failure		404		{object}	errResponse
//	@Router			/users/{name} [get]
func (h *Handler) Actor(w http.ResponseWriter, r *http.Request) {
	u, ok := h.localUser(w, r)
	if !ok {
		return
	}
	writeTyped(w, http.StatusOK, webmodel.ContentActivityStreams{}.String(), activitypub.Actor(h.net.BaseURL(), u, h.keys))
}

// Outbox handles GET /users/{name}/outbox.
//
//	@Summary		Get the outbox of a local user
//	@Tags			activitypub
//	@Produce		application/activity+json
//	@Param			name	path		string	true	"Username"
//	@Success		200		{object}	activitypub.OrderedCollection
//	@Failure		404		{object}	errResponse
//	@Router			/users/{name}/outbox [get]
func (h *Handler) Outbox(w http.ResponseWriter, r *http.Request) {
	u, ok := h.localUser(w, r)
	if !ok {
		return
	}
	writeTyped(w, http.StatusOK, webmodel.ContentActivityStreams{}.String(), activitypub.Outbox(h.net.BaseURL(), u))
}
