package api

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"internify/internal/nav"
	"internify/internal/shared/telemetry"
)

const requestIDHeader = "X-Request-Id"

// bearerTransport attaches the current access token and a request id to every
// outbound request.
type bearerTransport struct {
	next     http.RoundTripper
	sessions SessionSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header.Get(requestIDHeader) == "" {
		out.Header.Set(requestIDHeader, uuid.NewString())
	}
	sess, err := t.sessions.GetSession(req.Context())
	switch {
	case err != nil:
		telemetry.Warn("api.session_read_failed", map[string]any{"path": req.URL.Path, "err": err})
	case sess == nil:
		telemetry.Debug("api.unauthenticated_request", map[string]any{"path": req.URL.Path})
	default:
		sess.Token().SetAuthHeader(out)
	}
	return t.next.RoundTrip(out)
}

// unauthorizedTransport forces a sign-out when the backend rejects the session.
type unauthorizedTransport struct {
	next      http.RoundTripper
	signOuter SignOuter
	navigator nav.Navigator
	basePath  string
	optional  []Rule

	inFlight atomic.Bool
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if t.isOptional(req) {
		telemetry.Debug("api.optional_resource_unauthorized", map[string]any{"path": req.URL.Path})
		return resp, nil
	}
	t.forceSignOut(req.Context(), req.URL.Path)
	return resp, nil
}

func (t *unauthorizedTransport) isOptional(req *http.Request) bool {
	rel := strings.TrimPrefix(req.URL.Path, t.basePath)
	for _, r := range t.optional {
		if strings.EqualFold(r.Method, req.Method) && r.Path == rel {
			return true
		}
	}
	return false
}

func (t *unauthorizedTransport) forceSignOut(ctx context.Context, path string) {
	if t.navigator != nil && t.navigator.Current() == nav.Login {
		return
	}
	if !t.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer t.inFlight.Store(false)

	telemetry.Info("api.session_rejected", map[string]any{"path": path})
	// The caller's context may already be cancelled; the sign-out must still complete.
	if err := t.signOuter.SignOut(context.WithoutCancel(ctx)); err != nil {
		telemetry.Error("api.forced_sign_out_failed", map[string]any{"err": err})
	}
	if t.navigator != nil {
		t.navigator.Replace(nav.Login)
	}
}
