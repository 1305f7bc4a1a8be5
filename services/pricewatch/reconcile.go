package pricewatch

import (
	"math"

	"pricewatch/lib/pricing"
	"pricewatch/lib/scrapers/storefront"
)

// reconcileHistorical decides whether this run's price replaces the
// stored historical minimum. The second branch looks redundant with the
// strict comparison but is not: it records a first-ever price exactly
// when the stored value decodes to +Inf and the lookup actually found a
// listing, while an unknown current price against an unknown historical
// one fires neither branch and leaves "unknown" as unknown.
func reconcileHistorical(codec pricing.Codec, result storefront.SearchResult, historicalText string) (string, bool) {
	historical := codec.Parse(historicalText)

	if result.PriceValue < historical {
		return result.PriceText, true
	}
	if math.IsInf(historical, 1) && result.Found {
		return result.PriceText, true
	}
	return historicalText, false
}
