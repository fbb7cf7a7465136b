// Package api is the HTTP admin surface of the registry.
//
//	GET    /nodes              every node type (JSON or rendered text)
//	POST   /nodes              install {"module": name}
//	GET    /nodes/{mod}        one module (JSON, or text with Accept: text/plain)
//	PUT    /nodes/{mod}        enable or disable a module {"enabled": bool}
//	DELETE /nodes/{mod}        uninstall
//	GET    /nodes/{mod}/{type} one node type (JSON or rendered text)
//	PUT    /nodes/{mod}/{type} enable or disable a node type {"enabled": bool}
//
// Failures are reported as {"error": code, "message": text}.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/regerr"
	"github.com/specialistvlad/nodereg/internal/registry"
)

// Registry is the part of the registry the API serves.
type Registry interface {
	Snapshot() model.Snapshot
	RenderNodeList() string
	GetModule(name string) (model.Module, bool)
	RenderModule(name string) (string, bool)
	GetNodeType(id string) (model.NodeType, bool)
	InstallModule(ctx context.Context, name string) (model.Module, error)
	UninstallModule(ctx context.Context, name string) error
	SetEnabled(ctx context.Context, id string, enabled bool) (model.NodeType, error)
	SetModuleEnabled(ctx context.Context, name string, enabled bool) (registry.ModuleResult, error)
}

// API serves the registry over HTTP.
type API struct {
	reg Registry
}

// New creates an API.
func New(reg Registry) *API {
	return &API{reg: reg}
}

// Routes returns a router serving the /nodes endpoints. Request logs go to
// logger, tagged with a request id.
func (a *API) Routes(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withLogger(logger))

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", a.getAll)
		r.Post("/", a.post)
		r.Get("/{mod}", a.getModule)
		r.Put("/{mod}", a.putModule)
		r.Delete("/{mod}", a.delete)
		r.Get("/{mod}/{type}", a.getNodeType)
		r.Put("/{mod}/{type}", a.putNodeType)
	})
	return r
}

// withLogger places a request-scoped logger into the request context.
func withLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.With("request_id", middleware.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path)
			l.Debug("Request received.")
			next.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), l)))
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (a *API) getAll(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, a.reg.Snapshot().NodeTypeViews())
		return
	}
	writeText(w, http.StatusOK, a.reg.RenderNodeList())
}

type installRequest struct {
	Module string `json:"module"`
}

func (a *API) post(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Module == "" {
		writeError(w, r, regerr.New(regerr.KindInvalidRequest, "invalid request"))
		return
	}

	mod, err := a.reg.InstallModule(r.Context(), req.Module)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mod.View())
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	if err := a.reg.UninstallModule(r.Context(), chi.URLParam(r, "mod")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getModule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "mod")
	if strings.Contains(r.Header.Get("Accept"), "text/plain") {
		if text, ok := a.reg.RenderModule(name); ok {
			writeText(w, http.StatusOK, text)
			return
		}
	}
	mod, ok := a.reg.GetModule(name)
	if !ok {
		writeError(w, r, regerr.New(regerr.KindModuleNotFound, "module '%s' not found", name))
		return
	}
	writeJSON(w, http.StatusOK, mod.View())
}

func (a *API) getNodeType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "mod") + "/" + chi.URLParam(r, "type")
	nt, ok := a.reg.GetNodeType(id)
	if !ok {
		writeError(w, r, regerr.New(regerr.KindNodeTypeNotFound, "node type '%s' not found", id))
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, nt.View())
		return
	}
	text := fmt.Sprintf("%s: %s", nt.ID(), nt.State())
	if nt.Err() != "" {
		text += " (" + nt.Err() + ")"
	}
	writeText(w, http.StatusOK, text+"\n")
}

type enableRequest struct {
	Enabled *bool `json:"enabled"`
}

func decodeEnable(r *http.Request) (bool, error) {
	var req enableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		return false, regerr.New(regerr.KindInvalidRequest, "invalid request")
	}
	return *req.Enabled, nil
}

func (a *API) putNodeType(w http.ResponseWriter, r *http.Request) {
	enabled, err := decodeEnable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "mod") + "/" + chi.URLParam(r, "type")
	nt, err := a.reg.SetEnabled(r.Context(), id, enabled)
	// A failed enable still answers with the node type; its err field
	// carries the failure.
	if err != nil && regerr.KindOf(err) != regerr.KindHandlerInitFailure {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nt.View())
}

func (a *API) putModule(w http.ResponseWriter, r *http.Request) {
	enabled, err := decodeEnable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := a.reg.SetModuleEnabled(r.Context(), chi.URLParam(r, "mod"), enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Module.View())
}

// statusOf maps a registry error to an HTTP status.
func statusOf(err error) int {
	re := regerr.From(err)
	switch re.Kind {
	case regerr.KindModuleNotFound, regerr.KindNodeTypeNotFound:
		return http.StatusNotFound
	case regerr.KindOperationInProgress:
		return http.StatusConflict
	case regerr.KindInstallFailure:
		if re.Code == "404" {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	ctxlog.FromContext(r.Context()).Debug("Request failed.", "status", status, "error", err)
	writeJSON(w, status, regerr.ToPayload(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(s))
}
