package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/analysis"
	"github.com/prn-tf/eday-ledger/internal/cache"
	"github.com/prn-tf/eday-ledger/internal/domain"
	"github.com/prn-tf/eday-ledger/internal/metrics"
)

// Texts shown in place of a summary.
const (
	AnalysisUnavailable = "The AI analyst is currently unavailable."
	AnalysisEmpty       = "I'm unable to analyze the data at the moment. Please check back shortly."
)

// DefaultAnalysisTimeout bounds one summarizer call.
const DefaultAnalysisTimeout = 15 * time.Second

// CandidateSnapshotter provides the read-only candidate snapshot.
type CandidateSnapshotter interface {
	Snapshot(ctx context.Context) ([]domain.Candidate, error)
}

// AnalysisService produces the AI summary of the standings.
// It only reads the ledger; a failing summarizer degrades to a fixed text.
type AnalysisService struct {
	ledger     CandidateSnapshotter
	summarizer analysis.Summarizer
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	cache    cache.Cache
	cacheTTL time.Duration
}

// NewAnalysisService creates a new AnalysisService.
// A nil summarizer disables the analyst.
func NewAnalysisService(
	ledger CandidateSnapshotter,
	summarizer analysis.Summarizer,
	timeout time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AnalysisService {
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}
	return &AnalysisService{
		ledger:     ledger,
		summarizer: summarizer,
		timeout:    timeout,
		metrics:    m,
		logger:     logger.With().Str("service", "analysis").Logger(),
	}
}

// WithCache reuses a summary for identical standings for ttl.
func (s *AnalysisService) WithCache(c cache.Cache, ttl time.Duration) *AnalysisService {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// Enabled returns true if a summarizer is configured.
func (s *AnalysisService) Enabled() bool {
	return s.summarizer != nil
}

// Analyze returns the analyst's summary, or a fallback text.
func (s *AnalysisService) Analyze(ctx context.Context) string {
	if s.summarizer == nil {
		s.record("disabled")
		return AnalysisUnavailable
	}

	candidates, err := s.ledger.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read candidate snapshot")
		s.record("fallback")
		return AnalysisUnavailable
	}

	key := cacheKey(candidates)
	if text, ok := s.cached(ctx, key); ok {
		s.record("cached")
		return text
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.summarizer.Summarize(callCtx, candidates)
	if err != nil {
		s.logger.Warn().Err(err).Msg("AI analyst failed")
		s.record("fallback")
		return AnalysisUnavailable
	}
	if text == "" {
		s.record("fallback")
		return AnalysisEmpty
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(text), s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache analysis")
		}
	}

	s.record("ok")
	return text
}

func (s *AnalysisService) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	return string(val), true
}

// cacheKey identifies a snapshot by the prompt it produces.
func cacheKey(candidates []domain.Candidate) string {
	sum := sha256.Sum256([]byte(analysis.BuildPrompt(candidates)))
	return "analysis:" + hex.EncodeToString(sum[:])
}

func (s *AnalysisService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.AnalysisRequests.WithLabelValues(outcome).Inc()
	}
}
