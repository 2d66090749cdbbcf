package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/engine/discovery"
	"github.com/jobscout/jobscout/internal/engine/feedback"
	"github.com/jobscout/jobscout/internal/jobs"
)

type discoveryRequest struct {
	MaxJobs      int  `json:"max_jobs"`
	ForceRefresh bool `json:"force_refresh"`
}

// runDiscovery triggers one discovery pass for the caller. The profile is
// required; missing preferences just mean a run with defaults.
func (s *Server) runDiscovery(c *gin.Context) {
	var req discoveryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", err)
			return
		}
	}

	uid := userID(c)
	profile, err := s.profiles.Get(c.Request.Context(), uid)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	prefs, err := s.prefs.Get(c.Request.Context(), uid)
	if err != nil && !errors.Is(err, jobs.ErrNotFound) {
		respondDomainError(c, err)
		return
	}

	result := s.runner.Run(c.Request.Context(), uid, profile, prefs, discovery.Options{
		MaxJobs:      req.MaxJobs,
		ForceRefresh: req.ForceRefresh,
	})
	c.JSON(http.StatusOK, result)
}

type feedbackRequest struct {
	Feedback string  `json:"feedback"`
	Reason   *string `json:"reason"`
}

func (s *Server) postFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	posting, err := s.learner.Apply(c.Request.Context(), feedback.Input{
		JobPostingID: c.Param("id"),
		UserID:       userID(c),
		Feedback:     req.Feedback,
		Reason:       req.Reason,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, posting)
}

type scoreRequest struct {
	Job jobs.DiscoveredJob `json:"job"`
}

// scoreMatch scores an ad-hoc job against the caller's stored profile and
// preferences without persisting anything.
func (s *Server) scoreMatch(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	uid := userID(c)
	profile, err := s.profiles.Get(c.Request.Context(), uid)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	prefs, err := s.prefs.Get(c.Request.Context(), uid)
	if err != nil && !errors.Is(err, jobs.ErrNotFound) {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.scorer.Score(&req.Job, profile, prefs))
}

func (s *Server) listJobs(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		Limit  int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	postings, err := s.postings.ListForUser(c.Request.Context(), userID(c),
		jobs.Status(query.Status), query.Limit)
	if err != nil {
		s.logger.Error("listing postings failed", zap.Error(err))
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": postings})
}
