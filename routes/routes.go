package routes

import (
	"github.com/gin-gonic/gin"

	"drive-rag-chatbot/middleware"
	"drive-rag-chatbot/services"
)

// Register wires all endpoints onto the engine.
func Register(r *gin.Engine, svc *services.RAGService, store *services.SessionStore, newSource SourceFactory) {
	docs := NewDocsHandler(svc, newSource)
	chat := NewChatHandler(svc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	withSession := r.Group("/", middleware.Session(store))
	withSession.GET("/documents", docs.ListDocuments)
	withSession.POST("/documents/select", docs.SelectDocuments)
	withSession.POST("/query", chat.Query)
	withSession.GET("/chat", chat.Status)
}
