// Package discovery runs the full discovery pipeline: compose queries, call
// the generative-search collaborator per query, parse and deduplicate the
// candidates, score the survivors and persist them as postings.
//
// The orchestrator degrades instead of failing: a broken collaborator call,
// a store hiccup or malformed AI output all shrink the result; Run never
// returns an error to its caller.
package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobscout/jobscout/internal/ai"
	"github.com/jobscout/jobscout/internal/engine/parse"
	"github.com/jobscout/jobscout/internal/engine/query"
	"github.com/jobscout/jobscout/internal/jobs"
)

const (
	// DefaultMaxJobs bounds the result size when the caller does not ask
	// for a specific limit.
	DefaultMaxJobs = 20
	// MaxJobsLimit is the hard upper bound for a single run.
	MaxJobsLimit = 100

	// defaultDedupWindow is how far back existing postings still count as
	// duplicates.
	defaultDedupWindow = 30 * 24 * time.Hour
)

// PostingStore is the slice of the job store the orchestrator needs.
type PostingStore interface {
	// ExistingHashes returns which of the given content hashes already have
	// a posting for the user discovered after since.
	ExistingHashes(ctx context.Context, userID string, hashes []string, since time.Time) (map[string]bool, error)
	Insert(ctx context.Context, posting *jobs.JobPosting) error
}

// Scorer computes a match result for a candidate.
type Scorer interface {
	Score(job *jobs.DiscoveredJob, profile *jobs.Profile, prefs *jobs.Preferences) *jobs.MatchResult
}

// ResultCache stores recent discovery results per user so repeated requests
// within the TTL do not burn collaborator quota. All cache failures are
// advisory.
type ResultCache interface {
	Get(ctx context.Context, userID string) (*Result, error)
	Set(ctx context.Context, userID string, result *Result) error
}

// RunRecorder receives best-effort run bookkeeping after a successful run.
type RunRecorder interface {
	RecordRun(ctx context.Context, userID string, found int) error
}

// Options tune a single discovery run.
type Options struct {
	MaxJobs      int
	ForceRefresh bool
}

// Result is the outcome of one discovery run.
type Result struct {
	Jobs              []*jobs.JobPosting `json:"jobs"`
	TokenUsage        ai.TokenUsage      `json:"token_usage"`
	QueriesExecuted   int                `json:"queries_executed"`
	DuplicatesSkipped int                `json:"duplicates_skipped"`
}

// Orchestrator wires the discovery pipeline together.
type Orchestrator struct {
	provider    ai.SearchProvider
	store       PostingStore
	scorer      Scorer
	cache       ResultCache // optional
	recorder    RunRecorder // optional
	logger      *zap.Logger
	dedupWindow time.Duration
	now         func() time.Time
}

// New creates an Orchestrator. Cache and recorder may be nil; provider,
// store and scorer must not be.
func New(provider ai.SearchProvider, store PostingStore, scorer Scorer, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider:    provider,
		store:       store,
		scorer:      scorer,
		logger:      logger,
		dedupWindow: defaultDedupWindow,
		now:         time.Now,
	}
}

// WithCache attaches an advisory result cache.
func (o *Orchestrator) WithCache(cache ResultCache) *Orchestrator {
	o.cache = cache
	return o
}

// WithRunRecorder attaches best-effort run bookkeeping.
func (o *Orchestrator) WithRunRecorder(recorder RunRecorder) *Orchestrator {
	o.recorder = recorder
	return o
}

// queryOutcome carries what a single collaborator call produced.
type queryOutcome struct {
	candidates []jobs.DiscoveredJob
	usage      ai.TokenUsage
	failed     bool
}

// Run executes one discovery pass for the user. It never returns an error:
// per-query failures are isolated and logged, and a run where every query
// fails yields an empty result with zeroed counters.
func (o *Orchestrator) Run(ctx context.Context, userID string, profile *jobs.Profile, prefs *jobs.Preferences, opts Options) *Result {
	maxJobs := clampMaxJobs(opts.MaxJobs)

	if !opts.ForceRefresh && o.cache != nil {
		if cached, err := o.cache.Get(ctx, userID); err == nil && cached != nil {
			o.logger.Debug("serving cached discovery result",
				zap.String("user_id", userID),
				zap.Int("jobs", len(cached.Jobs)),
			)
			return cached
		}
	}

	queries := query.Compose(profile, prefs, o.now())
	outcomes := make([]queryOutcome, len(queries))

	// Collaborator calls are independent; fan out and isolate failures so
	// one broken query never aborts its siblings.
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			resp, err := o.provider.Search(gctx, q)
			if err != nil {
				o.logger.Warn("search query failed",
					zap.String("user_id", userID),
					zap.String("query", q),
					zap.Error(err),
				)
				outcomes[i] = queryOutcome{failed: true}
				return nil
			}

			candidates := parse.Jobs(resp.Text)
			o.logger.Debug("search query parsed",
				zap.String("query", q),
				zap.Int("candidates", len(candidates)),
				zap.Int("total_tokens", resp.Usage.TotalTokens),
			)
			outcomes[i] = queryOutcome{candidates: candidates, usage: resp.Usage}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	result := &Result{Jobs: []*jobs.JobPosting{}}
	merged := make([]sourcedCandidate, 0)
	for i, outcome := range outcomes {
		if outcome.failed {
			continue
		}
		result.QueriesExecuted++
		result.TokenUsage.Add(outcome.usage)
		for _, candidate := range outcome.candidates {
			merged = append(merged, sourcedCandidate{job: candidate, query: queries[i]})
		}
	}

	if result.QueriesExecuted == 0 {
		o.logger.Warn("all search queries failed", zap.String("user_id", userID))
		return result
	}

	fresh := o.dedup(ctx, userID, merged, result)

	for _, candidate := range fresh {
		if len(result.Jobs) >= maxJobs {
			break
		}

		match := o.scorer.Score(&candidate.job, profile, prefs)
		posting := &jobs.JobPosting{
			UserID:         userID,
			DiscoveredJob:  candidate.job,
			SearchQuery:    candidate.query,
			MatchScore:     match.TotalScore,
			MatchBreakdown: &match.Breakdown,
			MatchReasons:   match.MatchReasons,
			Status:         jobs.StatusNew,
			DiscoveredAt:   o.now().UTC(),
		}

		if err := o.store.Insert(ctx, posting); err != nil {
			o.logger.Error("inserting job posting failed",
				zap.String("user_id", userID),
				zap.String("content_hash", candidate.job.ContentHash),
				zap.Error(err),
			)
			continue
		}
		result.Jobs = append(result.Jobs, posting)
	}

	o.logger.Info("discovery run finished",
		zap.String("user_id", userID),
		zap.Int("queries_executed", result.QueriesExecuted),
		zap.Int("jobs", len(result.Jobs)),
		zap.Int("duplicates_skipped", result.DuplicatesSkipped),
		zap.Int("total_tokens", result.TokenUsage.TotalTokens),
	)

	if o.cache != nil {
		if err := o.cache.Set(ctx, userID, result); err != nil {
			o.logger.Warn("caching discovery result failed", zap.Error(err))
		}
	}
	if o.recorder != nil {
		if err := o.recorder.RecordRun(ctx, userID, len(result.Jobs)); err != nil {
			o.logger.Warn("recording discovery run failed", zap.Error(err))
		}
	}

	return result
}

// sourcedCandidate keeps the query that produced a candidate so the stored
// posting can reference it.
type sourcedCandidate struct {
	job   jobs.DiscoveredJob
	query string
}

// dedup removes in-batch repeats (first occurrence wins) and candidates the
// user already has a recent posting for. Only store hits increment the
// duplicate counter; batch repeats are just collapsed.
func (o *Orchestrator) dedup(ctx context.Context, userID string, merged []sourcedCandidate, result *Result) []sourcedCandidate {
	seen := make(map[string]bool, len(merged))
	unique := make([]sourcedCandidate, 0, len(merged))
	hashes := make([]string, 0, len(merged))
	for _, candidate := range merged {
		if seen[candidate.job.ContentHash] {
			continue
		}
		seen[candidate.job.ContentHash] = true
		unique = append(unique, candidate)
		hashes = append(hashes, candidate.job.ContentHash)
	}

	if len(unique) == 0 {
		return unique
	}

	existing, err := o.store.ExistingHashes(ctx, userID, hashes, o.now().Add(-o.dedupWindow))
	if err != nil {
		o.logger.Warn("looking up existing postings failed; skipping store dedup",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return unique
	}

	fresh := make([]sourcedCandidate, 0, len(unique))
	for _, candidate := range unique {
		if existing[candidate.job.ContentHash] {
			result.DuplicatesSkipped++
			continue
		}
		fresh = append(fresh, candidate)
	}
	return fresh
}

func clampMaxJobs(v int) int {
	if v <= 0 {
		return DefaultMaxJobs
	}
	if v > MaxJobsLimit {
		return MaxJobsLimit
	}
	return v
}
