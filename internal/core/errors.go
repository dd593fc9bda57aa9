package core

import "errors"

var (
	// ErrNoResults means the upstream call was well-formed but returned an
	// empty result set.
	ErrNoResults = errors.New("no results found")

	// ErrUpstreamUnavailable means a metadata source errored or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrAcquisitionExhausted means every acquisition tier failed; no file
	// was produced.
	ErrAcquisitionExhausted = errors.New("all acquisition tiers failed")
)
