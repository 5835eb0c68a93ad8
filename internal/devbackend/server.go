// Package devbackend is an in-memory stand-in for the Internify REST backend and its
// GoTrue-compatible auth provider, used for local development and end-to-end tests.
package devbackend

import (
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/crypto/bcrypt"

	"internify/internal/extract"
	"internify/internal/models"
	"internify/internal/shared/auth"
	"internify/internal/shared/metrics"
	"internify/internal/shared/server"
	"internify/internal/shared/server/middleware"
)

// Options configures a Server. Zero values select dev defaults.
type Options struct {
	Env           string
	AnonKey       string
	JWTSecret     string
	TokenTTL      time.Duration
	AutoConfirm   bool
	CORSOrigins   []string
	BcryptCost    int
	AuthRateLimit middleware.RateLimitRule
	Extractor     extract.Extractor
	Model         llms.Model
	Mailer        Mailer
	Postings      []models.Posting
	Now           func() time.Time
}

// Server owns the fake's state and its HTTP routes.
type Server struct {
	opts    Options
	store   *memoryStore
	catalog *Catalog
	signer  *auth.Signer
	drafter Drafter
	limiter *middleware.RateLimiter
	metrics *metrics.Registry
	now     func() time.Time
}

// New constructs a Server.
func New(opts Options) (*Server, error) {
	signer, err := auth.NewSigner(opts.JWTSecret, opts.Env, opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.PDF{}
	}
	if opts.Mailer == nil {
		opts.Mailer = LogMailer{}
	}
	if opts.Postings == nil {
		opts.Postings = DefaultPostings()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.AuthRateLimit == (middleware.RateLimitRule{}) {
		opts.AuthRateLimit = middleware.RateLimitRule{Rate: 2, Burst: 30}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Server{
		opts:    opts,
		store:   newMemoryStore(),
		catalog: NewCatalog(opts.Postings),
		signer:  signer,
		drafter: Drafter{Model: opts.Model},
		limiter: middleware.NewRateLimiter(opts.Now),
		metrics: metrics.New(),
		now:     opts.Now,
	}, nil
}

// Handler returns the router serving both the auth provider under /auth/v1 and
// the backend REST API.
func (s *Server) Handler() http.Handler {
	r := server.NewEngine(s.opts.CORSOrigins)
	r.GET("/metrics", s.metrics.Handler())
	s.registerProviderRoutes(r)

	api := r.Group("", middleware.Auth(s.signer))

	resume := api.Group("/resume")
	resume.POST("/upload", s.uploadResume)
	resume.GET("/latest", s.latestResume)
	resume.DELETE("/:id", s.deleteResume)

	postings := api.Group("/internships")
	postings.GET("/search", s.searchPostings)
	postings.GET("/company/:name", s.postingsByCompany)
	postings.GET("/:id", s.getPosting)

	llm := api.Group("/llm")
	llm.POST("/generate-email", s.generateEmail)
	llm.POST("/regenerate-email", s.regenerateEmail)

	email := api.Group("/email")
	email.POST("/send", s.sendEmail)
	email.GET("/history", s.emailHistory)
	email.GET("/:id", s.getEmail)
	email.DELETE("/:id", s.deleteEmail)

	identity := api.Group("/auth")
	identity.POST("/verify", s.verifyIdentity)
	identity.GET("/me", s.me)

	return r
}
