// Package server exposes the engine over HTTP. Callers are identified by the
// x-user-id header; authentication itself lives in an upstream gateway.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/engine/discovery"
	"github.com/jobscout/jobscout/internal/engine/feedback"
	"github.com/jobscout/jobscout/internal/jobs"
)

const userIDHeader = "x-user-id"

// DiscoveryRunner runs one discovery pass.
type DiscoveryRunner interface {
	Run(ctx context.Context, userID string, profile *jobs.Profile, prefs *jobs.Preferences, opts discovery.Options) *discovery.Result
}

// FeedbackApplier records a feedback verdict.
type FeedbackApplier interface {
	Apply(ctx context.Context, in feedback.Input) (*jobs.JobPosting, error)
}

// Scorer computes a match result for an ad-hoc job.
type Scorer interface {
	Score(job *jobs.DiscoveredJob, profile *jobs.Profile, prefs *jobs.Preferences) *jobs.MatchResult
}

// ProfileStore reads profile snapshots.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*jobs.Profile, error)
}

// PreferenceStore reads preference rows.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (*jobs.Preferences, error)
}

// PostingLister lists a user's stored postings.
type PostingLister interface {
	ListForUser(ctx context.Context, userID string, status jobs.Status, limit int) ([]*jobs.JobPosting, error)
}

// Server wires the engine components behind the HTTP API.
type Server struct {
	runner   DiscoveryRunner
	learner  FeedbackApplier
	scorer   Scorer
	profiles ProfileStore
	prefs    PreferenceStore
	postings PostingLister
	logger   *zap.Logger
}

// New creates a Server.
func New(runner DiscoveryRunner, learner FeedbackApplier, scorer Scorer,
	profiles ProfileStore, prefs PreferenceStore, postings PostingLister,
	logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		runner:   runner,
		learner:  learner,
		scorer:   scorer,
		profiles: profiles,
		prefs:    prefs,
		postings: postings,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(requireUser())
	{
		api.POST("/discovery/run", s.runDiscovery)
		api.POST("/jobs/:id/feedback", s.postFeedback)
		api.POST("/match/score", s.scoreMatch)
		api.GET("/jobs", s.listJobs)
	}

	return router
}

// requestLog logs one line per request through the shared zap logger.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// requireUser rejects requests without the caller identity header.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(userIDHeader) == "" {
			respondError(c, http.StatusUnauthorized, "missing_user",
				errors.New("the "+userIDHeader+" header is required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetHeader(userIDHeader)
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

// respondDomainError maps the engine's error taxonomy onto HTTP statuses.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case jobs.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, jobs.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, jobs.ErrForbidden):
		respondError(c, http.StatusForbidden, "forbidden", err)
	default:
		respondError(c, http.StatusInternalServerError, "server_error", err)
	}
}
