package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"internify/internal/models"
)

// MaxUploadBytes caps the resume file read into a multipart body.
const MaxUploadBytes = 10 << 20

// ResumeService covers /resume.
type ResumeService struct{ c *Client }

type uploadResponse struct {
	ID            string    `json:"id"`
	FilePath      string    `json:"file_path"`
	ExtractedText string    `json:"extracted_text"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Upload sends a PDF as multipart field "file".
func (s *ResumeService) Upload(ctx context.Context, fileName string, r io.Reader) (models.Resume, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return models.Resume{}, fmt.Errorf("create form part: %w", err)
	}
	n, err := io.Copy(part, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return models.Resume{}, fmt.Errorf("read resume: %w", err)
	}
	if n > MaxUploadBytes {
		return models.Resume{}, fmt.Errorf("resume exceeds %d bytes", MaxUploadBytes)
	}
	if err := mw.Close(); err != nil {
		return models.Resume{}, fmt.Errorf("close form: %w", err)
	}

	var out uploadResponse
	if err := s.c.do(ctx, http.MethodPost, "/resume/upload", nil, &buf, mw.FormDataContentType(), &out); err != nil {
		return models.Resume{}, err
	}
	return models.Resume{
		ID:            out.ID,
		FilePath:      out.FilePath,
		ExtractedText: out.ExtractedText,
		UploadedAt:    out.UploadedAt,
	}, nil
}

// Latest returns the most recent resume or ErrNoResume.
func (s *ResumeService) Latest(ctx context.Context) (models.Resume, error) {
	var out struct {
		Success bool           `json:"success"`
		Resume  *models.Resume `json:"resume"`
	}
	err := s.c.doJSON(ctx, http.MethodGet, "/resume/latest", nil, nil, &out)
	if StatusOf(err) == http.StatusNotFound {
		return models.Resume{}, fmt.Errorf("%w: %v", ErrNoResume, err)
	}
	if err != nil {
		return models.Resume{}, err
	}
	if out.Resume == nil {
		return models.Resume{}, ErrNoResume
	}
	return *out.Resume, nil
}

// Delete removes the resume with id.
func (s *ResumeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("resume id is required")
	}
	return s.c.doJSON(ctx, http.MethodDelete, "/resume/"+url.PathEscape(id), nil, nil, nil)
}
