package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfqa/internal/ai"
	"pdfqa/internal/app"
	"pdfqa/internal/pkg/pdfextract"
	"pdfqa/internal/repository"
	"pdfqa/internal/session"
)

const (
	sessionHeader     = "X-Session-ID"
	defaultSessionKey = "default"
	maxPDFSize        = 10 << 20 // 10 MB
)

type QAHandler struct {
	qaService *app.QAService
	records   *repository.AnswerRecordRepository
}

func NewQAHandler(qaService *app.QAService, records *repository.AnswerRecordRepository) *QAHandler {
	return &QAHandler{qaService: qaService, records: records}
}

func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(sessionHeader)); id != "" {
		return id
	}
	return defaultSessionKey
}

type ProcessPDFRequest struct {
	FilePath string `json:"filePath" binding:"required"`
}

// ProcessPDF ingests the PDF at a server-side path into the caller's session.
func (h *QAHandler) ProcessPDF(c *gin.Context) {
	var req ProcessPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	if _, err := os.Stat(req.FilePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "PDF file not found: " + req.FilePath})
		return
	}

	result, err := h.qaService.IngestPDF(c.Request.Context(), sessionID(c), req.FilePath)
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "PDF processed successfully",
		"session_id":     result.SessionID,
		"upload_time":    result.UploadedAt,
		"chunks_created": result.ChunksCreated,
	})
}

// UploadPDF is the multipart variant of ingestion: the client sends the PDF
// itself instead of a server-side path.
func (h *QAHandler) UploadPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if file.Size > maxPDFSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 10MB)"})
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are allowed"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	pages, err := pdfextract.Extract(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to extract text from PDF: " + err.Error()})
		return
	}

	result, err := h.qaService.Ingest(c.Request.Context(), sessionID(c), pages)
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "PDF processed successfully",
		"session_id":     result.SessionID,
		"upload_time":    result.UploadedAt,
		"chunks_created": result.ChunksCreated,
	})
}

func (h *QAHandler) writeIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "PDF file is empty or unreadable. Please check your file."})
	case errors.Is(err, app.ErrNoChunks):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No text chunks generated from the PDF. Please check your file."})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "PDF processing failed: " + err.Error()})
	}
}

type AskRequest struct {
	Question string         `json:"question"`
	History  []app.ChatTurn `json:"history"`
}

// Ask answers a question from the session's document. No-document and
// no-context states are soft 200 results, not errors.
func (h *QAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	result, err := h.qaService.Ask(c.Request.Context(), sessionID(c), req.Question, req.History)
	if err != nil {
		h.writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": result.Text})
}

type SummarizeRequest struct {
	PDF string `json:"pdf"` // reserved, not used by retrieval
}

func (h *QAHandler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	result, err := h.qaService.Summarize(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": result.Text})
}

type CompareRequest struct {
	SessionID1 string `json:"session_id_1"`
	SessionID2 string `json:"session_id_2"`
	Question   string `json:"question"`
}

// Compare answers a question across two sessions' documents. A missing
// session here is a hard error: comparison needs both sides.
func (h *QAHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if req.SessionID1 == "" {
		req.SessionID1 = defaultSessionKey
	}
	if req.SessionID2 == "" {
		req.SessionID2 = defaultSessionKey
	}

	comparison, err := h.qaService.Compare(c.Request.Context(), req.SessionID1, req.SessionID2, req.Question)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "One or both sessions do not have a PDF loaded"})
			return
		}
		h.writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparison": comparison})
}

func (h *QAHandler) Reset(c *gin.Context) {
	id := sessionID(c)
	h.qaService.Reset(id)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Session cleared successfully",
		"session_id": id,
	})
}

func (h *QAHandler) Status(c *gin.Context) {
	id := sessionID(c)
	status := h.qaService.Status(id)
	c.JSON(http.StatusOK, gin.H{
		"pdf_loaded":  status.PDFLoaded,
		"session_id":  id,
		"upload_time": status.UploadedAt,
	})
}

// History returns recent persisted answers for the session.
func (h *QAHandler) History(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	recs, err := h.records.ListBySessionID(sessionID(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list history failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": recs})
}

func (h *QAHandler) writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "question must not be empty"})
	case errors.Is(err, ai.ErrGenerationTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Answer generation timed out. Please try again."})
	case errors.Is(err, ai.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Answer generation failed: " + err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
