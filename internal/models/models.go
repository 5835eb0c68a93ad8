// Package models holds the wire records exchanged with the Internify backend.
package models

import (
	"path"
	"time"
)

// Resume is the user's uploaded resume and its extracted text.
type Resume struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	FilePath      string    `json:"file_path"`
	ExtractedText string    `json:"extracted_text"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// FileName returns the last segment of the storage path.
func (r Resume) FileName() string {
	if r.FilePath == "" {
		return ""
	}
	return path.Base(r.FilePath)
}

// Posting is a job or internship listing returned by search.
type Posting struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Location       string     `json:"location,omitempty"`
	Description    string     `json:"description,omitempty"`
	Link           string     `json:"link,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	ContactEmail   string     `json:"contact_email,omitempty"`
	ContactPhone   string     `json:"contact_phone,omitempty"`
	ContactWebsite string     `json:"contact_website,omitempty"`
}

// PostingSummary is the posting projection embedded in sent-email history.
type PostingSummary struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	Link    string `json:"link,omitempty"`
}

// GeneratedEmail is the AI-drafted subject/body pair.
type GeneratedEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SentEmail is a historical record of a delivered email.
type SentEmail struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id,omitempty"`
	PostingID      string          `json:"internship_id,omitempty"`
	Subject        string          `json:"subject"`
	Body           string          `json:"body"`
	RecipientEmail string          `json:"recipient_email"`
	SentAt         time.Time       `json:"sent_at"`
	Status         string          `json:"status"`
	Posting        *PostingSummary `json:"internships,omitempty"`
}

// GenerateEmailRequest is the payload for AI email generation.
type GenerateEmailRequest struct {
	PostingDescription string `json:"internship_description"`
	ResumeText         string `json:"resume_text"`
	PostingTitle       string `json:"internship_title"`
	CompanyName        string `json:"company_name"`
}

// SendEmailRequest is the payload for delivering an email.
type SendEmailRequest struct {
	PostingID      string `json:"internship_id"`
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// Identity is the backend's view of the authenticated user.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
