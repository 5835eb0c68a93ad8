package devbackend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"internify/internal/models"
)

const (
	maxPromptResume      = 800
	maxPromptDescription = 400
)

// ErrEmptyDraft reports a model reply without usable text.
var ErrEmptyDraft = errors.New("model returned an empty draft")

// Drafter writes application emails with a language model.
type Drafter struct {
	Model llms.Model
}

// Draft returns a subject and body for req. variant selects the subject template;
// generate uses 0 and each regenerate moves to the next.
func (d Drafter) Draft(ctx context.Context, req models.GenerateEmailRequest, variant int) (models.GeneratedEmail, error) {
	model := d.Model
	if model == nil {
		model = TemplateModel{}
	}
	body, err := llms.GenerateFromSinglePrompt(ctx, model, emailPrompt(req),
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(500),
	)
	if err != nil {
		return models.GeneratedEmail{}, fmt.Errorf("generate email body: %w", err)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return models.GeneratedEmail{}, ErrEmptyDraft
	}
	return models.GeneratedEmail{
		Subject: subjectLine(strings.TrimSpace(req.PostingTitle), strings.TrimSpace(req.CompanyName), variant),
		Body:    body,
	}, nil
}

func subjectLine(title, company string, variant int) string {
	templates := []string{
		"Application for %[1]s Position at %[2]s",
		"Interested in %[1]s Role at %[2]s",
		"%[1]s Application - Enthusiastic Candidate",
		"Passionate Candidate for %[1]s at %[2]s",
	}
	if variant < 0 {
		variant = 0
	}
	tmpl := templates[variant%len(templates)]
	if !strings.Contains(tmpl, "%[2]s") {
		return fmt.Sprintf(tmpl, title)
	}
	return fmt.Sprintf(tmpl, title, company)
}

func emailPrompt(req models.GenerateEmailRequest) string {
	var b strings.Builder
	b.WriteString("Write a professional internship application email.\n\n")
	fmt.Fprintf(&b, "Position: %s\n", strings.TrimSpace(req.PostingTitle))
	fmt.Fprintf(&b, "Company: %s\n\n", strings.TrimSpace(req.CompanyName))
	fmt.Fprintf(&b, "Role Description:\n%s\n\n", truncate(strings.TrimSpace(req.PostingDescription), maxPromptDescription))
	fmt.Fprintf(&b, "Candidate Background:\n%s\n\n", truncate(strings.TrimSpace(req.ResumeText), maxPromptResume))
	b.WriteString(`Guidelines:
- Write in a professional yet friendly tone
- Keep it 100-150 words
- Start with a greeting
- Express interest in the role
- Highlight 2-3 relevant skills that match the position
- End with a call to action
- Do NOT include subject line or signature
- Use "I" perspective (first person)

Write only the email body:`)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// TemplateModel is an offline llms.Model that fills a fixed email from the
// Position and Company lines of the prompt.
type TemplateModel struct{}

var _ llms.Model = TemplateModel{}

// GenerateContent implements llms.Model.
func (m TemplateModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
				prompt.WriteString("\n")
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: templateEmail(prompt.String()), StopReason: "stop"}},
	}, nil
}

// Call implements llms.Model.
func (m TemplateModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func templateEmail(prompt string) string {
	position, company := "this internship", "your company"
	for _, line := range strings.Split(prompt, "\n") {
		if v, ok := strings.CutPrefix(line, "Position:"); ok && strings.TrimSpace(v) != "" {
			position = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "Company:"); ok && strings.TrimSpace(v) != "" {
			company = strings.TrimSpace(v)
		}
	}
	return fmt.Sprintf(`Dear Hiring Team,

I am writing to express my strong interest in the %s position at %s. I am excited about the opportunity to contribute to your team and to keep learning from experienced engineers.

My coursework and projects have given me hands-on experience that aligns well with the requirements of this role, and I am eager to apply those skills in a real-world setting.

I would welcome the opportunity to discuss how my experience and enthusiasm can contribute to your team. Thank you for considering my application.

Best regards`, position, company)
}
