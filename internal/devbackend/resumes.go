package devbackend

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"internify/internal/models"
	"internify/internal/shared/server/middleware"
	"internify/internal/shared/server/respond"
	"internify/internal/shared/telemetry"
	"internify/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

type uploadResponse struct {
	ID            string    `json:"id"`
	FilePath      string    `json:"file_path"`
	ExtractedText string    `json:"extracted_text"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

func (s *Server) uploadResume(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}
	if !util.HasExt(name, ".pdf") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Only PDF files are supported", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	text, err := s.opts.Extractor.Text(c.Request.Context(), data)
	if err != nil {
		telemetry.Info("devbackend.resume.extract_failed", map[string]any{"user_id": userID, "err": err})
		respond.Error(c, http.StatusBadRequest, "extraction_failed", "Could not extract text from PDF. Please ensure the file is not encrypted.", nil)
		return
	}

	now := s.now().UTC()
	resume := models.Resume{
		ID:            uuid.NewString(),
		UserID:        userID,
		FilePath:      fmt.Sprintf("%s/resumes/resume_%s.pdf", userID, now.Format("20060102_150405")),
		ExtractedText: text,
		UploadedAt:    now,
	}
	if err := s.store.addResume(c.Request.Context(), resume); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to save resume data", nil)
		return
	}
	s.metrics.IncResumesUploaded()
	telemetry.Info("devbackend.resume.uploaded", map[string]any{"user_id": userID, "resume_id": resume.ID, "file_name": name, "chars": len(text)})

	respond.OK(c, uploadResponse{
		ID:            resume.ID,
		FilePath:      resume.FilePath,
		ExtractedText: resume.ExtractedText,
		UploadedAt:    resume.UploadedAt,
	})
}

func (s *Server) latestResume(c *gin.Context) {
	resume, err := s.store.latestResume(c.Request.Context(), middleware.UserIDFromContext(c))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "No resume found. Please upload a resume first.", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch resume", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "resume": resume})
}

func (s *Server) deleteResume(c *gin.Context) {
	err := s.store.deleteResume(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "Resume not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to delete resume", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "message": "Resume deleted successfully"})
}
