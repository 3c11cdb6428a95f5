package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/supreme-chatbot/internal/handler/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/handler/widget"
	middlewarePkg "github.com/zhouzirui/supreme-chatbot/internal/middleware"
	"github.com/zhouzirui/supreme-chatbot/internal/service/companion"
)

func newBaseRouter(logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	return r
}

// NewWidgetRouter wires the chat widget page, its JSON API and the websocket feed.
func NewWidgetRouter(widgetHandler *widget.Handler, logger zerolog.Logger) http.Handler {
	r := newBaseRouter(logger)
	widgetHandler.RegisterRoutes(r)
	return r
}

// NewCompanionRouter wires the reference chat backend under /api.
func NewCompanionRouter(responder companion.Responder, logger zerolog.Logger) http.Handler {
	r := newBaseRouter(logger)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(responder, logger)
	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
	})
	return r
}
