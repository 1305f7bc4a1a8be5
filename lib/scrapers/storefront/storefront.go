// Package storefront holds the contract every storefront search
// strategy implements.
package storefront

import (
	"context"
	"math"

	"pricewatch/lib/pricing"
)

// SearchResult is the outcome of one storefront lookup for one game.
type SearchResult struct {
	// Found reports whether a listing cleared the similarity threshold.
	Found bool
	// Title is the matched listing's display title, empty if not found.
	Title string
	// PriceText is the human-readable price: a currency string, the
	// free sentinel or the unavailable sentinel. It never carries
	// diagnostic error detail.
	PriceText string
	// PriceValue is the canonical numeric price: 0 for free, +Inf for
	// unavailable or not found.
	PriceValue float64
	// URL links to the matched listing, empty if not found.
	URL string
	// Score is the similarity score of the winning candidate in
	// [0, 100], 0 if not found.
	Score int
}

type Storefront interface {
	Name() string
	// Search never returns an error: transport failures and low-
	// confidence matches degrade to a not-found result.
	Search(ctx context.Context, gameName string) SearchResult
}

// NotFound is the uniform result for every failure mode.
func NotFound(codec pricing.Codec) SearchResult {
	inf := math.Inf(1)
	return SearchResult{
		Found:      false,
		PriceText:  codec.Format(inf),
		PriceValue: inf,
	}
}
