package routes

import (
	"github.com/gin-gonic/gin"

	"drive-rag-chatbot/middleware"
	"drive-rag-chatbot/services"
	"drive-rag-chatbot/utils"
)

// ChatHandler serves query answering and chat status.
type ChatHandler struct {
	svc *services.RAGService
}

func NewChatHandler(svc *services.RAGService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type queryRequest struct {
	Query string `json:"query"`
}

// Query handles POST /query. The service layer resolves every failure mode
// to a user-safe reply, so this endpoint always answers 200 with text.
func (h *ChatHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
		return
	}

	sess := middleware.GetSession(c)
	answer := h.svc.Ask(c.Request.Context(), sess, req.Query)

	c.JSON(200, gin.H{"response": answer})
}

// Status handles GET /chat: what the frontend needs to render the chat
// screen for this session.
func (h *ChatHandler) Status(c *gin.Context) {
	sess := middleware.GetSession(c)

	chunkCount := 0
	if index := sess.Index(); index != nil {
		chunkCount = index.Len()
	}

	c.JSON(200, gin.H{
		"ai_available":        h.svc.Configured(),
		"selected_docs_count": sess.SelectedCount(),
		"chunk_count":         chunkCount,
	})
}
