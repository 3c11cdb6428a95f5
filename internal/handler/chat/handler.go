package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/service/companion"
	"github.com/zhouzirui/supreme-chatbot/pkg/utils"
)

// Handler 伴聊后端的HTTP处理器
type Handler struct {
	responder companion.Responder
	log       zerolog.Logger
}

// New 创建伴聊处理器
func New(responder companion.Responder, logger zerolog.Logger) *Handler {
	return &Handler{
		responder: responder,
		log:       logger.With().Str("component", "companion").Logger(),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat 接收 {userId, message}，返回 {message}
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		userID = "anonymous"
	}

	reply, err := h.responder.Reply(r.Context(), userID, payload.Message)
	if err != nil {
		h.log.Error().Err(err).Str("user", userID).Msg("failed to generate reply")
		utils.RespondError(w, http.StatusBadGateway, "failed to generate reply")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chat.Reply{Message: &reply})
}
