// README: Free-form travel chat endpoints backed by the planner.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voyage/internal/modules/planner"
)

type ChatHandler struct {
	planner *planner.Service
	logger  *slog.Logger
}

func NewChatHandler(planner *planner.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{planner: planner, logger: logger}
}

type chatResponse struct {
	Reply       string          `json:"reply"`
	Places      []placeResponse `json:"places,omitempty"`
	Truncated   bool            `json:"truncated"`
	RateLimited bool            `json:"rateLimited"`
}

// Chat handles POST /api/chatbot/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := withTimeout(c, completionTimeout)
	defer cancel()
	res, err := h.planner.Chat(ctx, callerID(c), req.Message)
	if err != nil {
		h.logger.Error("chat failed", "uid", callerID(c), "error", err)
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, chatResponse{
		Reply:       res.Reply,
		Places:      toPlaceResponses(res.Places),
		Truncated:   res.Truncated,
		RateLimited: res.RateLimited,
	})
}

func (h *ChatHandler) History(c *gin.Context) {
	ctx, cancel := withTimeout(c, crudTimeout)
	defer cancel()
	turns, err := h.planner.History(ctx, callerID(c))
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"history": toTurnResponses(turns)})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	ctx, cancel := withTimeout(c, crudTimeout)
	defer cancel()
	if err := h.planner.ClearHistory(ctx, callerID(c)); err != nil {
		writePlanError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
