package devbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"internify/internal/extract"
	"internify/internal/shared/server/middleware"
)

const testAnonKey = "anon"

func newTestHandler(t *testing.T, opts Options) (*Server, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	opts.AnonKey = testAnonKey
	opts.BcryptCost = bcrypt.MinCost
	if opts.Extractor == nil {
		opts.Extractor = extract.ExtractorFunc(func(ctx context.Context, data []byte) (string, error) {
			return "Go developer with REST API and PostgreSQL experience", nil
		})
	}
	srv, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, srv.Handler()
}

func call(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", testAnonKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
}

func signUpToken(t *testing.T, h http.Handler, email string) tokenResponse {
	t.Helper()
	resp := call(t, h, http.MethodPost, "/auth/v1/signup", "", map[string]string{"email": email, "password": "secret1"})
	if resp.Code != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d %s", resp.Code, resp.Body.String())
	}
	var tok tokenResponse
	decode(t, resp, &tok)
	if tok.AccessToken == "" {
		t.Fatalf("expected a session from auto-confirmed signup, got %s", resp.Body.String())
	}
	return tok
}

func uploadPDF(t *testing.T, h http.Handler, token, name string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 resume"))
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/resume/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

type errorEnvelope struct {
	Detail string `json:"detail"`
}

func TestSignInAndRefreshRotation(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})
	first := signUpToken(t, h, "ana@example.com")

	resp := call(t, h, http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{"email": "ana@example.com", "password": "wrong-pw"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad password, got %d", resp.Code)
	}
	var pe providerError
	decode(t, resp, &pe)
	if pe.Error != "invalid_grant" || pe.Description != "Invalid login credentials" {
		t.Fatalf("unexpected error body %+v", pe)
	}

	resp = call(t, h, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", map[string]string{"refresh_token": first.RefreshToken})
	if resp.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d %s", resp.Code, resp.Body.String())
	}
	var renewed tokenResponse
	decode(t, resp, &renewed)
	if renewed.RefreshToken == "" || renewed.RefreshToken == first.RefreshToken {
		t.Fatalf("expected a rotated refresh token, got %q", renewed.RefreshToken)
	}

	resp = call(t, h, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", map[string]string{"refresh_token": first.RefreshToken})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected reused refresh token to fail, got %d", resp.Code)
	}
}

func TestSignUpRequiresVerificationWithoutAutoConfirm(t *testing.T) {
	_, h := newTestHandler(t, Options{})

	resp := call(t, h, http.MethodPost, "/auth/v1/signup", "", map[string]string{"email": "new@example.com", "password": "secret1"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var raw map[string]any
	decode(t, resp, &raw)
	if _, ok := raw["access_token"]; ok {
		t.Fatalf("expected no session before confirmation, got %v", raw)
	}
	if raw["id"] == "" || raw["email"] != "new@example.com" {
		t.Fatalf("expected bare user, got %v", raw)
	}

	resp = call(t, h, http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{"email": "new@example.com", "password": "secret1"})
	var pe providerError
	decode(t, resp, &pe)
	if resp.Code != http.StatusBadRequest || pe.Description != "Email not confirmed" {
		t.Fatalf("expected unconfirmed rejection, got %d %+v", resp.Code, pe)
	}

	resp = call(t, h, http.MethodPost, "/auth/v1/signup", "", map[string]string{"email": "NEW@example.com", "password": "secret1"})
	decode(t, resp, &pe)
	if resp.Code != http.StatusUnprocessableEntity || pe.Msg != "User already registered" {
		t.Fatalf("expected duplicate rejection, got %d %+v", resp.Code, pe)
	}
}

func TestProviderRequiresAPIKey(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})

	req := httptest.NewRequest(http.MethodPost, "/auth/v1/signup", strings.NewReader(`{"email":"a@b.co","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without apikey, got %d", resp.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})
	tok := signUpToken(t, h, "bo@example.com")

	if resp := call(t, h, http.MethodGet, "/auth/v1/user", tok.AccessToken, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected live user lookup, got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodPost, "/auth/v1/logout", tok.AccessToken, nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodGet, "/auth/v1/user", tok.AccessToken, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("expected revoked session to be rejected, got %d", resp.Code)
	}
	resp := call(t, h, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", map[string]string{"refresh_token": tok.RefreshToken})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected refresh after logout to fail, got %d", resp.Code)
	}
}

func TestBackendRequiresBearer(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})

	resp := call(t, h, http.MethodGet, "/resume/latest", "", nil)
	var body errorEnvelope
	decode(t, resp, &body)
	if resp.Code != http.StatusUnauthorized || body.Detail != "Authorization header missing" {
		t.Fatalf("expected missing header rejection, got %d %+v", resp.Code, body)
	}

	resp = call(t, h, http.MethodGet, "/resume/latest", "garbage", nil)
	decode(t, resp, &body)
	if resp.Code != http.StatusUnauthorized || body.Detail != "Invalid token" {
		t.Fatalf("expected invalid token rejection, got %d %+v", resp.Code, body)
	}
}

func TestResumeLifecycle(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})
	tok := signUpToken(t, h, "cy@example.com").AccessToken

	resp := call(t, h, http.MethodGet, "/resume/latest", tok, nil)
	var body errorEnvelope
	decode(t, resp, &body)
	if resp.Code != http.StatusNotFound || body.Detail != "No resume found. Please upload a resume first." {
		t.Fatalf("expected no resume, got %d %+v", resp.Code, body)
	}

	resp = uploadPDF(t, h, tok, "resume.docx")
	decode(t, resp, &body)
	if resp.Code != http.StatusBadRequest || body.Detail != "Only PDF files are supported" {
		t.Fatalf("expected non-pdf rejection, got %d %+v", resp.Code, body)
	}

	resp = uploadPDF(t, h, tok, "resume.pdf")
	if resp.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d %s", resp.Code, resp.Body.String())
	}
	var uploaded uploadResponse
	decode(t, resp, &uploaded)
	if uploaded.ID == "" || !strings.Contains(uploaded.FilePath, "/resumes/resume_") || uploaded.ExtractedText == "" {
		t.Fatalf("unexpected upload response %+v", uploaded)
	}

	resp = call(t, h, http.MethodGet, "/resume/latest", tok, nil)
	var latest struct {
		Success bool `json:"success"`
		Resume  struct {
			ID string `json:"id"`
		} `json:"resume"`
	}
	decode(t, resp, &latest)
	if !latest.Success || latest.Resume.ID != uploaded.ID {
		t.Fatalf("expected latest to be the upload, got %+v", latest)
	}

	if resp := call(t, h, http.MethodDelete, "/resume/"+uploaded.ID, tok, nil); resp.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodDelete, "/resume/"+uploaded.ID, tok, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", resp.Code)
	}
}

func TestUploadExtractionFailure(t *testing.T) {
	_, h := newTestHandler(t, Options{
		AutoConfirm: true,
		Extractor: extract.ExtractorFunc(func(context.Context, []byte) (string, error) {
			return "", errors.New("encrypted")
		}),
	})
	tok := signUpToken(t, h, "dee@example.com").AccessToken

	resp := uploadPDF(t, h, tok, "locked.pdf")
	var body errorEnvelope
	decode(t, resp, &body)
	if resp.Code != http.StatusBadRequest || !strings.HasPrefix(body.Detail, "Could not extract text from PDF") {
		t.Fatalf("expected extraction failure, got %d %+v", resp.Code, body)
	}
}

func TestPostingSearch(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})
	tok := signUpToken(t, h, "eve@example.com").AccessToken

	type searchBody struct {
		Internships []struct {
			ID      string `json:"id"`
			Company string `json:"company"`
		} `json:"internships"`
		Count   int    `json:"count"`
		Message string `json:"message"`
	}

	var found searchBody
	decode(t, call(t, h, http.MethodGet, "/internships/search?role=software+engineer", tok, nil), &found)
	if found.Count != 2 || len(found.Internships) != 2 {
		t.Fatalf("expected two software engineer postings, got %+v", found)
	}

	decode(t, call(t, h, http.MethodGet, "/internships/search?role=software+engineer&location=chennai", tok, nil), &found)
	if len(found.Internships) != 1 || found.Internships[0].Company != "Tideway Systems" {
		t.Fatalf("expected location filter, got %+v", found)
	}

	var empty searchBody
	decode(t, call(t, h, http.MethodGet, "/internships/search?role=astronaut", tok, nil), &empty)
	if len(empty.Internships) != 0 || empty.Message == "" {
		t.Fatalf("expected empty result with message, got %+v", empty)
	}

	if resp := call(t, h, http.MethodGet, "/internships/search?role=intern&limit=0", tok, nil); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected limit validation, got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodGet, "/internships/search", tok, nil); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected role validation, got %d", resp.Code)
	}

	id := PostingID("Machine Learning Intern", "Quantum Ridge")
	var one struct {
		Internship struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"internship"`
	}
	decode(t, call(t, h, http.MethodGet, "/internships/"+id, tok, nil), &one)
	if one.Internship.ID != id || one.Internship.Title != "Machine Learning Intern" {
		t.Fatalf("unexpected posting %+v", one)
	}
	if resp := call(t, h, http.MethodGet, "/internships/missing", tok, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	var company searchBody
	decode(t, call(t, h, http.MethodGet, "/internships/company/acme%20cloud?role=frontend", tok, nil), &company)
	if company.Count != 1 {
		t.Fatalf("expected one Acme Cloud frontend posting, got %+v", company)
	}
}

func TestGenerateEmail(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})
	tok := signUpToken(t, h, "fay@example.com").AccessToken

	req := map[string]string{
		"internship_description": "Build Go services",
		"internship_title":       "Backend Intern",
		"company_name":           "Northwind Labs",
	}
	resp := call(t, h, http.MethodPost, "/llm/generate-email", tok, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected missing resume to 404, got %d", resp.Code)
	}

	req["resume_text"] = "Go developer"
	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
		Success bool   `json:"success"`
	}
	decode(t, call(t, h, http.MethodPost, "/llm/generate-email", tok, req), &out)
	if out.Subject != "Application for Backend Intern Position at Northwind Labs" || !out.Success {
		t.Fatalf("unexpected draft %+v", out)
	}
	if !strings.Contains(out.Body, "Backend Intern position at Northwind Labs") {
		t.Fatalf("expected body to name the role and company, got %q", out.Body)
	}

	decode(t, call(t, h, http.MethodPost, "/llm/regenerate-email", tok, req), &out)
	if out.Subject != "Interested in Backend Intern Role at Northwind Labs" {
		t.Fatalf("expected next subject variant, got %q", out.Subject)
	}
}

func TestSendAndHistory(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})
	tok := signUpToken(t, h, "gus@example.com").AccessToken
	postingID := PostingID("DevOps Intern", "Northwind Labs")

	bad := map[string]string{"internship_id": postingID, "recipient_email": "not-an-email", "subject": "s", "body": "b"}
	if resp := call(t, h, http.MethodPost, "/email/send", tok, bad); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected invalid recipient to fail validation, got %d", resp.Code)
	}

	var ids []string
	for _, subject := range []string{"first", "second"} {
		var sent struct {
			Message string `json:"message"`
			Email   struct {
				ID      string `json:"id"`
				Status  string `json:"status"`
				Posting *struct {
					Title string `json:"title"`
				} `json:"internships"`
			} `json:"email"`
		}
		decode(t, call(t, h, http.MethodPost, "/email/send", tok, map[string]string{
			"internship_id": postingID, "recipient_email": "hr@northwind.example.com", "subject": subject, "body": "hello",
		}), &sent)
		if sent.Message != "Email sent successfully!" || sent.Email.Status != "sent" || sent.Email.Posting == nil || sent.Email.Posting.Title != "DevOps Intern" {
			t.Fatalf("unexpected send response %+v", sent)
		}
		ids = append(ids, sent.Email.ID)
	}
	if m := call(t, h, http.MethodGet, "/metrics", "", nil); !strings.Contains(m.Body.String(), "emails_sent_total 2") {
		t.Fatalf("expected sends to be counted, got:\n%s", m.Body.String())
	}

	var history struct {
		Emails []struct {
			ID      string `json:"id"`
			Subject string `json:"subject"`
		} `json:"emails"`
		Count int `json:"count"`
	}
	decode(t, call(t, h, http.MethodGet, "/email/history", tok, nil), &history)
	if history.Count != 2 || history.Emails[0].ID != ids[1] {
		t.Fatalf("expected newest first, got %+v", history)
	}
	decode(t, call(t, h, http.MethodGet, "/email/history?limit=1", tok, nil), &history)
	if history.Count != 1 {
		t.Fatalf("expected limit to apply, got %+v", history)
	}
	if resp := call(t, h, http.MethodGet, "/email/history?limit=101", tok, nil); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected limit validation, got %d", resp.Code)
	}

	if resp := call(t, h, http.MethodGet, "/email/"+ids[0], tok, nil); resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodDelete, "/email/"+ids[0], tok, nil); resp.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.Code)
	}
	if resp := call(t, h, http.MethodGet, "/email/"+ids[0], tok, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected deleted email to 404, got %d", resp.Code)
	}

	other := signUpToken(t, h, "hal@example.com").AccessToken
	if resp := call(t, h, http.MethodGet, "/email/"+ids[1], other, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected emails scoped to their owner, got %d", resp.Code)
	}
}

func TestVerifyAndMe(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true})
	tok := signUpToken(t, h, "ivy@example.com")

	var out struct {
		Success bool `json:"success"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, call(t, h, http.MethodPost, "/auth/verify", tok.AccessToken, nil), &out)
	if !out.Success || out.User.ID != tok.User.ID || out.User.Email != "ivy@example.com" {
		t.Fatalf("unexpected verify response %+v", out)
	}
	decode(t, call(t, h, http.MethodGet, "/auth/me", tok.AccessToken, nil), &out)
	if out.User.ID != tok.User.ID {
		t.Fatalf("unexpected me response %+v", out)
	}
}

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	_, h := newTestHandler(t, Options{AutoConfirm: true, AuthRateLimit: middleware.RateLimitRule{Rate: 0.001, Burst: 1}})

	first := call(t, h, http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{"email": "x@example.com", "password": "secret1"})
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first attempt must not be throttled")
	}
	second := call(t, h, http.MethodPost, "/auth/v1/token?grant_type=password", "", map[string]string{"email": "x@example.com", "password": "secret1"})
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}
