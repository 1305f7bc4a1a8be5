package pricewatch

import (
	"math"
	"testing"

	"pricewatch/lib/pricing"
	"pricewatch/lib/scrapers/storefront"

	"github.com/stretchr/testify/require"
)

func TestReconcileFirstRecordedPrice(t *testing.T) {
	codec := pricing.NewCodec()

	result := storefront.SearchResult{
		Found:      true,
		PriceText:  "59",
		PriceValue: 59,
	}

	updated, changed := reconcileHistorical(codec, result, "Unavailable")
	require.True(t, changed)
	require.Equal(t, "59", updated)

	// an empty historical cell decodes to +Inf too
	updated, changed = reconcileHistorical(codec, result, "")
	require.True(t, changed)
	require.Equal(t, "59", updated)
}

func TestReconcileLowerPriceWins(t *testing.T) {
	codec := pricing.NewCodec()

	result := storefront.SearchResult{
		Found:      true,
		PriceText:  "R$ 39,90",
		PriceValue: 40,
	}

	updated, changed := reconcileHistorical(codec, result, "59")
	require.True(t, changed)
	require.Equal(t, "R$ 39,90", updated)
}

func TestReconcileHigherPriceKeepsHistory(t *testing.T) {
	codec := pricing.NewCodec()

	result := storefront.SearchResult{
		Found:      true,
		PriceText:  "65",
		PriceValue: 65,
	}

	updated, changed := reconcileHistorical(codec, result, "59")
	require.False(t, changed)
	require.Equal(t, "59", updated)
}

func TestReconcileUnknownStaysUnknown(t *testing.T) {
	codec := pricing.NewCodec()

	result := storefront.NotFound(codec)
	require.True(t, math.IsInf(result.PriceValue, 1))

	updated, changed := reconcileHistorical(codec, result, "Unavailable")
	require.False(t, changed)
	require.Equal(t, "Unavailable", updated)
}

func TestReconcileFreeBeatsEverything(t *testing.T) {
	codec := pricing.NewCodec()

	result := storefront.SearchResult{
		Found:      true,
		PriceText:  "Free",
		PriceValue: 0,
	}

	updated, changed := reconcileHistorical(codec, result, "59")
	require.True(t, changed)
	require.Equal(t, "Free", updated)
}
