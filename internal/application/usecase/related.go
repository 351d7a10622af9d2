// Package usecase contains application-level services.
package usecase

import "github.com/tesso57/rsscluster/internal/domain/corpus"

// DefaultThreshold is the similarity cutoff used when none is configured.
const DefaultThreshold = 0.6

// RelatedPolicy decides which backend results count as related to a seed.
type RelatedPolicy struct {
	Threshold float64
	// ExcludeSameFeed drops candidates published by the seed's own feed.
	ExcludeSameFeed bool
}

// Accept reports whether candidate is related to seed.
func (p RelatedPolicy) Accept(seed corpus.Document, candidate corpus.Similar) bool {
	if candidate.Score <= p.Threshold {
		return false
	}
	if candidate.ID == seed.ID {
		return false
	}
	if p.ExcludeSameFeed && candidate.Payload.Feed == seed.Payload.Feed {
		return false
	}
	return true
}

// Filter keeps the candidates accepted by the policy, preserving rank order.
func (p RelatedPolicy) Filter(seed corpus.Document, candidates []corpus.Similar) []corpus.Similar {
	if len(candidates) == 0 {
		return nil
	}
	related := make([]corpus.Similar, 0, len(candidates))
	for _, c := range candidates {
		if p.Accept(seed, c) {
			related = append(related, c)
		}
	}
	if len(related) == 0 {
		return nil
	}
	return related
}
