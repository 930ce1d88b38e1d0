// Package httpapi is a thin HTTP adapter over the dispatch engine. It
// exists so the core can be driven without a messaging platform: one
// endpoint accepts inbound events, one exposes carts for inspection.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/engine"
)

type Handler struct {
	engine *engine.Engine
	carts  core.CartStore
}

func NewHandler(eng *engine.Engine, carts core.CartStore) *Handler {
	return &Handler{engine: eng, carts: carts}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", h.PostEvent)
		r.Get("/carts/{userID}", h.GetCart)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type eventRequest struct {
	UserID  string `json:"user_id"`
	Text    string `json:"text,omitempty"`
	Token   string `json:"token,omitempty"`
	FileRef string `json:"file_ref,omitempty"`
}

type eventResponse struct {
	Replies []core.Reply `json:"replies"`
}

// PostEvent accepts one inbound event. Exactly one of text, token or
// file_ref must be set; the event kind is derived from which one it is.
func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	replies, err := h.engine.Handle(r.Context(), ev)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, eventResponse{Replies: replies})
}

func (req eventRequest) toEvent() (core.InboundEvent, error) {
	if req.UserID == "" {
		return core.InboundEvent{}, errors.New("user_id is required")
	}
	set := 0
	for _, s := range []string{req.Text, req.Token, req.FileRef} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return core.InboundEvent{}, errors.New("exactly one of text, token or file_ref is required")
	}
	switch {
	case req.Token != "":
		return core.NewActionEvent(req.UserID, core.Action(req.Token)), nil
	case req.FileRef != "":
		return core.NewFileEvent(req.UserID, req.FileRef), nil
	default:
		return core.NewTextEvent(req.UserID, req.Text), nil
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.carts.Snapshot(userID))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
