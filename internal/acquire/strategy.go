// Package acquire turns resolved tracks into local media files. Tiers are
// tried in a fixed order; each one reports whether it succeeded, whether the
// next tier should be tried, or whether the whole attempt must stop.
package acquire

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tunepipe/internal/core"
)

// Verdict is a tier's judgement on its own attempt.
type Verdict int

const (
	// Success means the tier produced a usable file.
	Success Verdict = iota
	// TryNext means this tier cannot serve the request but another might.
	TryNext
	// Fatal means the attempt must stop, typically on cancellation.
	Fatal
)

// Outcome is what a tier reports back to the strategy.
type Outcome struct {
	Verdict Verdict
	Path    string
	Reason  string
}

// Tier is one way of acquiring media.
type Tier interface {
	Name() string
	Fetch(ctx context.Context, track *core.ResolvedTrack, wantVideo bool) Outcome
}

// Strategy runs the configured tiers in order until one succeeds.
type Strategy struct {
	tiers  []Tier
	logger *zap.Logger
}

// NewStrategy assembles the tier chain from configuration. The hosted tier
// is only present when at least one endpoint is configured; the subprocess
// extractor is always last.
func NewStrategy(cfg *core.AcquireConfig, logger *zap.Logger) *Strategy {
	var tiers []Tier

	if cfg.AudioAPIURL != "" || cfg.VideoAPIURL != "" {
		tiers = append(tiers, NewHostedTier(cfg, logger))
	}

	var creds CredentialSource
	if cfg.Proxy == "" && cfg.CredentialDir != "" {
		creds = NewDirSource(cfg.CredentialDir)
	}
	tiers = append(tiers, NewExtractorTier(cfg, creds, logger))

	return &Strategy{tiers: tiers, logger: logger}
}

// NewStrategyWithTiers builds a strategy over an explicit tier chain.
func NewStrategyWithTiers(tiers []Tier, logger *zap.Logger) *Strategy {
	return &Strategy{tiers: tiers, logger: logger}
}

// Acquire tries each tier in order and returns the first success. A Fatal
// verdict or context cancellation stops the chain early.
func (s *Strategy) Acquire(ctx context.Context, track *core.ResolvedTrack, wantVideo bool) core.AcquisitionResult {
	for _, tier := range s.tiers {
		if ctx.Err() != nil {
			s.logger.Debug("Acquisition cancelled",
				zap.String("video_id", track.ID))
			return core.AcquisitionResult{}
		}

		start := time.Now()
		outcome := tier.Fetch(ctx, track, wantVideo)
		elapsed := time.Since(start)

		switch outcome.Verdict {
		case Success:
			s.logger.Info("Acquired media",
				zap.String("video_id", track.ID),
				zap.String("tier", tier.Name()),
				zap.String("path", outcome.Path),
				zap.Duration("elapsed", elapsed))
			return core.AcquisitionResult{FilePath: outcome.Path, Success: true}

		case Fatal:
			s.logger.Warn("Acquisition aborted",
				zap.String("video_id", track.ID),
				zap.String("tier", tier.Name()),
				zap.String("reason", outcome.Reason))
			return core.AcquisitionResult{}

		default:
			s.logger.Debug("Tier passed",
				zap.String("video_id", track.ID),
				zap.String("tier", tier.Name()),
				zap.String("reason", outcome.Reason),
				zap.Duration("elapsed", elapsed))
		}
	}

	s.logger.Warn("All acquisition tiers exhausted",
		zap.String("video_id", track.ID),
		zap.Bool("video", wantVideo))
	return core.AcquisitionResult{}
}
