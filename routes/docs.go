package routes

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"drive-rag-chatbot/internal/ai"
	"drive-rag-chatbot/internal/drive"
	"drive-rag-chatbot/internal/logger"
	"drive-rag-chatbot/middleware"
	"drive-rag-chatbot/models"
	"drive-rag-chatbot/services"
	"drive-rag-chatbot/utils"
)

// DriveSource is what the document endpoints need from Drive: enumeration
// for the picker and fetching for ingestion.
type DriveSource interface {
	services.DocumentSource
	List(ctx context.Context) ([]models.DocumentInfo, error)
}

// SourceFactory builds a DriveSource from the caller's OAuth access token.
// Documents live in the user's own Drive, so a source exists per request,
// not per process.
type SourceFactory func(ctx context.Context, accessToken string) (DriveSource, error)

// NewDriveSource is the production SourceFactory.
func NewDriveSource(ctx context.Context, accessToken string) (DriveSource, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return drive.NewSource(ctx, ts)
}

// DocsHandler serves document listing and selection.
type DocsHandler struct {
	svc       *services.RAGService
	newSource SourceFactory
}

func NewDocsHandler(svc *services.RAGService, newSource SourceFactory) *DocsHandler {
	return &DocsHandler{svc: svc, newSource: newSource}
}

type selectRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required"`
}

// ListDocuments handles GET /documents.
func (h *DocsHandler) ListDocuments(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		utils.RespondWithUnauthorized(c, "Missing or invalid Authorization header")
		return
	}

	source, err := h.newSource(c.Request.Context(), token)
	if err != nil {
		logger.Error("drive source creation failed", "error", err)
		utils.RespondWithInternalError(c, "Failed to connect to Google Drive", nil)
		return
	}

	infos, err := source.List(c.Request.Context())
	if err != nil {
		logger.Error("document listing failed", "error", err)
		utils.RespondWithInternalError(c, "Failed to list documents", nil)
		return
	}

	c.JSON(200, gin.H{"documents": infos})
}

// SelectDocuments handles POST /documents/select: it runs the full ingest
// pipeline for the chosen documents and swaps the session's index.
func (h *DocsHandler) SelectDocuments(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		utils.RespondWithUnauthorized(c, "Missing or invalid Authorization header")
		return
	}

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if len(req.DocumentIDs) == 0 {
		utils.RespondWithBadRequest(c, "document_ids must not be empty", nil)
		return
	}

	source, err := h.newSource(c.Request.Context(), token)
	if err != nil {
		logger.Error("drive source creation failed", "error", err)
		utils.RespondWithInternalError(c, "Failed to connect to Google Drive", nil)
		return
	}

	sess := middleware.GetSession(c)
	report, err := h.svc.Ingest(c.Request.Context(), sess, source, req.DocumentIDs)
	if err != nil {
		h.respondIngestError(c, report, err)
		return
	}

	c.JSON(200, gin.H{
		"document_count": report.DocumentCount,
		"chunk_count":    report.ChunkCount,
		"skipped":        report.Skipped,
	})
}

func (h *DocsHandler) respondIngestError(c *gin.Context, report *models.IngestReport, err error) {
	switch {
	case errors.Is(err, services.ErrNotConfigured):
		utils.RespondWithServiceUnavailable(c, services.MsgUnavailable)
	case errors.Is(err, services.ErrNoContent):
		var skipped []models.SkippedDocument
		if report != nil {
			skipped = report.Skipped
		}
		utils.RespondWithUnprocessable(c, "no_content", "None of the selected documents produced usable text", skipped)
	case ai.IsQuota(err):
		logger.Error("ingest hit embedding quota", "error", err)
		utils.RespondWithServiceUnavailable(c, services.MsgQuota)
	case ai.IsAuth(err):
		logger.Error("ingest embedding auth failure", "error", err)
		utils.RespondWithServiceUnavailable(c, services.MsgUnavailable)
	default:
		logger.Error("ingest failed", "error", err)
		utils.RespondWithInternalError(c, "Failed to process selected documents", nil)
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
