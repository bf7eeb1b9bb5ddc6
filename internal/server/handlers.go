package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lkauth "github.com/livekit/protocol/auth"

	"voicekb/internal/domain"
	"voicekb/internal/usecase"
)

type uploadResponse struct {
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
}

type documentInfo struct {
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	TotalPages int    `json:"total_pages"`
	CreatedAt  string `json:"created_at"`
}

type retrieveRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

type chunkResult struct {
	Content    string  `json:"content"`
	DocID      string  `json:"doc_id"`
	ChunkIndex int     `json:"chunk_index"`
	Source     string  `json:"source"`
	FileType   string  `json:"file_type"`
	Page       int     `json:"page,omitempty"`
	TotalPages int     `json:"total_pages,omitempty"`
	Distance   float64 `json:"distance"`
}

type retrieveResponse struct {
	Context  string        `json:"context"`
	Results  []chunkResult `json:"results"`
	Degraded bool          `json:"degraded"`
	Reason   string        `json:"reason,omitempty"`
}

type promptRequest struct {
	SystemPrompt string `json:"system_prompt"`
}

type tokenRequest struct {
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !s.extAllowed(ext) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Unsupported file type: %s. Allowed: %s",
				ext, strings.Join(s.cfg.Server.AllowedExtensions, ", ")),
		})
		return
	}

	maxBytes := s.cfg.Server.MaxUploadBytes
	if file.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("File too large (%.1f MB). Maximum allowed: %.0f MB.",
				float64(file.Size)/1024/1024, float64(maxBytes)/1024/1024),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	docID := uuid.NewString()
	doc, err := s.ingestor.Ingest(c.Request.Context(), docID, file.Filename, data)
	if err != nil {
		c.JSON(ingestErrorStatus(err), gin.H{"error": fmt.Sprintf("Failed to ingest document: %v", err)})
		return
	}

	s.retriever.Invalidate()
	c.JSON(http.StatusOK, uploadResponse{
		DocID:      doc.ID,
		Filename:   doc.Source,
		Status:     string(doc.Status),
		ChunkCount: doc.ChunkCount,
	})
}

// ingestErrorStatus maps pipeline failures onto response codes: client
// mistakes are 400s, a broken embedding provider is a 502, the rest is on
// us.
func ingestErrorStatus(err error) int {
	var formatErr *domain.UnsupportedFormatError
	var svcErr *domain.EmbeddingServiceError
	switch {
	case errors.Is(err, domain.ErrNoExtractableText), errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &svcErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) extAllowed(ext string) bool {
	for _, a := range s.cfg.Server.AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.ingestor.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}

	out := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentInfo{
			DocID:      d.ID,
			Filename:   d.Source,
			FileType:   string(d.FileType),
			Status:     string(d.Status),
			ChunkCount: d.ChunkCount,
			TotalPages: d.TotalPages,
			CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	docID := c.Param("id")
	if err := s.ingestor.Delete(c.Request.Context(), docID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to delete document: %v", err)})
		return
	}

	s.retriever.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "doc_id": docID})
}

func (s *Server) handleRetrieve(c *gin.Context) {
	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	result := s.retriever.Retrieve(c.Request.Context(), req.Query, req.TopK)

	results := make([]chunkResult, 0, len(result.Chunks))
	for _, rc := range result.Chunks {
		results = append(results, chunkResult{
			Content:    rc.Content,
			DocID:      rc.DocID,
			ChunkIndex: rc.Index,
			Source:     rc.Source,
			FileType:   string(rc.FileType),
			Page:       rc.Page,
			TotalPages: rc.TotalPages,
			Distance:   rc.Distance,
		})
	}
	c.JSON(http.StatusOK, retrieveResponse{
		Context:  usecase.FormatContext(result.Chunks),
		Results:  results,
		Degraded: result.Degraded,
		Reason:   result.Reason,
	})
}

func (s *Server) handleGetPrompt(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"system_prompt": s.prompts.Get()})
}

func (s *Server) handleUpdatePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.prompts.Set(req.SystemPrompt); err != nil {
		s.log.Error("prompt save failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save prompt"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"system_prompt": req.SystemPrompt})
}

func (s *Server) handleToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.RoomName == "" {
		req.RoomName = "voice-agent-room"
	}
	if req.ParticipantName == "" {
		req.ParticipantName = "user"
	}

	key, secret := s.cfg.LiveKit.Credentials()
	if key == "" || secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "LiveKit credentials are not configured"})
		return
	}

	at := lkauth.NewAccessToken(key, secret).
		AddGrant(&lkauth.VideoGrant{RoomJoin: true, Room: req.RoomName}).
		SetIdentity(req.ParticipantName).
		SetValidFor(s.cfg.LiveKit.TokenTTL())
	token, err := at.ToJWT()
	if err != nil {
		s.log.Error("token generation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "livekit_url": s.cfg.LiveKit.URL})
}
