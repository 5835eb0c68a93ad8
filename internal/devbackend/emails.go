package devbackend

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"internify/internal/models"
	"internify/internal/shared/server/middleware"
	"internify/internal/shared/server/respond"
	"internify/internal/shared/telemetry"
)

type sendRequest struct {
	PostingID      string `json:"internship_id" binding:"required"`
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
	Subject        string `json:"subject" binding:"required"`
	Body           string `json:"body" binding:"required"`
}

type historyQuery struct {
	Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Mailer delivers a sent email. The dev server only logs it.
type Mailer interface {
	Deliver(email models.SentEmail) error
}

// LogMailer records deliveries in the structured log.
type LogMailer struct{}

func (LogMailer) Deliver(email models.SentEmail) error {
	telemetry.Info("devbackend.email.delivered", map[string]any{
		"email_id":  email.ID,
		"user_id":   email.UserID,
		"recipient": email.RecipientEmail,
		"subject":   email.Subject,
	})
	return nil
}

func (s *Server) sendEmail(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "internship_id, a valid recipient_email, subject and body are required", nil)
		return
	}

	email := models.SentEmail{
		ID:             uuid.NewString(),
		UserID:         userID,
		PostingID:      req.PostingID,
		Subject:        req.Subject,
		Body:           req.Body,
		RecipientEmail: req.RecipientEmail,
		SentAt:         s.now().UTC(),
		Status:         "sent",
	}
	if p, ok := s.catalog.Get(req.PostingID); ok {
		email.Posting = &models.PostingSummary{Title: p.Title, Company: p.Company, Link: p.Link}
	}

	if err := s.opts.Mailer.Deliver(email); err != nil {
		telemetry.Error("devbackend.email.delivery_failed", map[string]any{"user_id": userID, "err": err})
		respond.Error(c, http.StatusInternalServerError, "delivery_failed", "Failed to send email", nil)
		return
	}
	if err := s.store.addEmail(c.Request.Context(), email); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Email sent but failed to save record", nil)
		return
	}
	s.metrics.IncEmailsSent()

	respond.OK(c, gin.H{"success": true, "message": "Email sent successfully!", "email": email})
}

func (s *Server) emailHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "limit must be between 1 and 100", nil)
		return
	}
	limit := 50
	if q.Limit != nil {
		limit = *q.Limit
	}

	emails, err := s.store.listEmails(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch email history", nil)
		return
	}
	if emails == nil {
		emails = []models.SentEmail{}
	}
	respond.OK(c, gin.H{"success": true, "emails": emails, "count": len(emails)})
}

func (s *Server) getEmail(c *gin.Context) {
	email, err := s.store.getEmail(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "Email not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch email", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "email": email})
}

func (s *Server) deleteEmail(c *gin.Context) {
	err := s.store.deleteEmail(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "Email not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to delete email", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "message": "Email deleted successfully"})
}
