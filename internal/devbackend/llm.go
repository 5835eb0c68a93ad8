package devbackend

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"internify/internal/models"
	"internify/internal/shared/server/middleware"
	"internify/internal/shared/server/respond"
	"internify/internal/shared/telemetry"
)

type generateRequest struct {
	PostingDescription string `json:"internship_description" binding:"required"`
	ResumeText         string `json:"resume_text"`
	PostingTitle       string `json:"internship_title" binding:"required"`
	CompanyName        string `json:"company_name" binding:"required"`
}

func (s *Server) generateEmail(c *gin.Context) {
	s.draft(c, 0)
}

func (s *Server) regenerateEmail(c *gin.Context) {
	s.draft(c, s.store.nextVariant(middleware.UserIDFromContext(c)))
}

func (s *Server) draft(c *gin.Context, variant int) {
	userID := middleware.UserIDFromContext(c)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "internship_description, internship_title and company_name are required", nil)
		return
	}

	resumeText := req.ResumeText
	if strings.TrimSpace(resumeText) == "" {
		resume, err := s.store.latestResume(c.Request.Context(), userID)
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "No resume found. Please upload a resume first.", nil)
			return
		}
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch resume", nil)
			return
		}
		resumeText = resume.ExtractedText
	}

	started := time.Now()
	email, err := s.drafter.Draft(c.Request.Context(), models.GenerateEmailRequest{
		PostingDescription: req.PostingDescription,
		ResumeText:         resumeText,
		PostingTitle:       req.PostingTitle,
		CompanyName:        req.CompanyName,
	}, variant)
	s.metrics.ObserveDraft(time.Since(started), err)
	if err != nil {
		telemetry.Error("devbackend.llm.generate_failed", map[string]any{"user_id": userID, "err": err})
		respond.Error(c, http.StatusInternalServerError, "generation_failed", "Failed to generate email. Please try again.", nil)
		return
	}

	respond.OK(c, gin.H{"subject": email.Subject, "body": email.Body, "success": true})
}
