// Package extract pulls plain text out of uploaded resumes.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

var (
	ErrUnsupported = errors.New("only PDF files are supported")
	ErrNoText      = errors.New("could not extract text from PDF")
)

// Extractor turns a document into plain text.
type Extractor interface {
	Text(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc adapts a func to Extractor.
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

func (f ExtractorFunc) Text(ctx context.Context, data []byte) (string, error) { return f(ctx, data) }

// PDF extracts text with github.com/ledongthuc/pdf.
type PDF struct{}

// Text returns the normalized text of a PDF payload.
func (PDF) Text(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if http.DetectContentType(data) != mimePDF {
		return "", ErrUnsupported
	}
	raw, err := extractPDF(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoText, err)
	}
	text := Normalize(raw)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Normalize trims each line and drops blank ones.
func Normalize(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
