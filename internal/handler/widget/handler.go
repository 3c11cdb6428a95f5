package widget

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
	chatService "github.com/zhouzirui/supreme-chatbot/internal/service/chat"
	"github.com/zhouzirui/supreme-chatbot/pkg/utils"
)

//go:embed templates/page.html
var templates embed.FS

// Handler serves the chat widget page, its JSON API and the snapshot websocket.
type Handler struct {
	conversations *chatService.Registry
	persona       persona.Persona
	page          *template.Template
	upgrader      websocket.Upgrader
	log           zerolog.Logger

	// deliveries tracks background sends so shutdown can drain them.
	deliveries sync.WaitGroup

	socketsMu sync.Mutex
	sockets   map[*websocket.Conn]struct{}
	socketsWG sync.WaitGroup
}

// New creates the widget handler.
func New(conversations *chatService.Registry, p persona.Persona, logger zerolog.Logger) *Handler {
	page := template.Must(template.ParseFS(templates, "templates/page.html"))
	return &Handler{
		conversations: conversations,
		persona:       p,
		page:          page,
		log:           logger.With().Str("component", "widget").Logger(),
		sockets:       make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the widget routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handlePage)
	r.Route("/api/widget/{sessionID}", func(api chi.Router) {
		api.Get("/", h.handleSnapshot)
		api.Put("/draft", h.handleSetDraft)
		api.Post("/submit", h.handleSubmit)
		api.Post("/exercise", h.handleExercise)
	})
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// Wait closes open websocket connections and blocks until every socket loop
// and background delivery has finished. Call it after the HTTP server has
// stopped accepting requests.
func (h *Handler) Wait() {
	h.socketsMu.Lock()
	for conn := range h.sockets {
		_ = conn.Close()
	}
	h.sockets = nil
	h.socketsMu.Unlock()

	h.socketsWG.Wait()
	h.deliveries.Wait()
}

type pageData struct {
	Persona  persona.Persona
	Snapshot chat.Snapshot
}

// handlePage starts a fresh conversation on every load; a reload abandons the old one.
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	conv := h.conversations.Create(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.page.Execute(w, pageData{Persona: h.persona, Snapshot: conv.Snapshot()}); err != nil {
		h.log.Error().Err(err).Str("session", conv.ID()).Msg("failed to render widget page")
	}
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, conv.Snapshot())
}

type draftPayload struct {
	Text *string `json:"text"`
}

func (h *Handler) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload draftPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == nil {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	conv.SetDraft(*payload.Text)
	utils.RespondJSON(w, http.StatusOK, conv.Snapshot())
}

type submitResponse struct {
	Outcome  string        `json:"outcome"`
	Snapshot chat.Snapshot `json:"snapshot"`
}

// handleSubmit appends the user message and sets busy before responding; the
// backend call finishes in the background.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload draftPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text != nil {
		conv.SetDraft(*payload.Text)
	}

	turn, outcome := conv.Begin()
	status := http.StatusOK
	switch outcome {
	case chatService.OutcomePending:
		status = http.StatusAccepted
		h.deliver(context.WithoutCancel(r.Context()), conv, turn)
	case chatService.OutcomeBusy:
		status = http.StatusConflict
	}

	utils.RespondJSON(w, status, submitResponse{Outcome: outcome.String(), Snapshot: conv.Snapshot()})
}

func (h *Handler) handleExercise(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conv.TriggerExercise()
	utils.RespondJSON(w, http.StatusOK, conv.Snapshot())
}

func (h *Handler) deliver(ctx context.Context, conv *chatService.Conversation, turn chatService.Turn) {
	h.deliveries.Add(1)
	go func() {
		defer h.deliveries.Done()
		defer func() {
			if r := recover(); r != nil {
				h.log.Error().Str("session", conv.ID()).Interface("panic", r).Msg("delivery panicked")
			}
		}()
		outcome := conv.Deliver(ctx, turn)
		h.log.Debug().Str("session", conv.ID()).Str("outcome", outcome.String()).Msg("delivery finished")
	}()
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Conversation, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	conv, err := h.conversations.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
		} else {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return conv, true
}
