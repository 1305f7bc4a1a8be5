package psn

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"pricewatch/lib/scrapers/storefront"
	"pricewatch/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const searchPage = `
<html><body>
<div class="psw-product-tile">
  <a class="psw-top-left psw-bottom-right psw-stretched-link" href="/pt-br/product/UP9000-PPSA01521_00-0000000000000HFW"></a>
  <span class="psw-t-body">Horizon Forbidden West</span>
  <span class="psw-m-r-3">R$ 349,50</span>
</div>
<div class="psw-product-tile">
  <a class="psw-top-left psw-bottom-right psw-stretched-link" href="/pt-br/product/UP9000-HZD"></a>
  <span class="psw-t-body">Horizon Zero Dawn</span>
  <span class="psw-m-r-3">R$ 79,50</span>
</div>
</body></html>`

const redirectedListingPage = `
<html><body>
<h1 class="psw-m-t-2xs psw-t-title-l psw-l-line-break-m">Stray</h1>
<span class="psw-m-r-3">R$ 199,90</span>
</body></html>`

const strikethroughOnlyPage = `
<html><body>
<div class="psw-product-tile">
  <span class="psw-t-body">Bloodborne</span>
  <span class="psw-l-line-through">R$ 99,90</span>
</div>
</body></html>`

func newScraper(t *testing.T, handler http.Handler) Scraper {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/psn")
	t.Cleanup(cleanup)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewScraper(Options{BaseUrl: server.URL})
}

func TestSearchMatchesTile(t *testing.T) {
	scraper := newScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchPage)
	}))

	result := scraper.Search(context.Background(), "Horizon Forbidden West Deluxe Edition (PS5)")
	require.True(t, result.Found)
	require.Equal(t, "Horizon Forbidden West", result.Title)
	require.Equal(t, 100, result.Score)
	require.Equal(t, "R$ 349,50", result.PriceText)
	require.Equal(t, float64(350), result.PriceValue)
	require.Contains(t, result.URL, "/pt-br/product/UP9000-PPSA01521_00-0000000000000HFW")
}

func TestSearchRedirectedListing(t *testing.T) {
	scraper := newScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, redirectedListingPage)
	}))

	result := scraper.Search(context.Background(), "Stray")
	require.True(t, result.Found)
	require.Equal(t, "Stray", result.Title)
	require.Equal(t, 100, result.Score)
	require.Equal(t, "R$ 199,90", result.PriceText)
	require.Equal(t, float64(200), result.PriceValue)
}

func TestSearchStrikethroughFallbackSelector(t *testing.T) {
	scraper := newScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strikethroughOnlyPage)
	}))

	result := scraper.Search(context.Background(), "Bloodborne")
	require.True(t, result.Found)
	require.Equal(t, "R$ 99,90", result.PriceText)
	require.Equal(t, float64(100), result.PriceValue)
}

func TestSearchNoConfidentMatch(t *testing.T) {
	scraper := newScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchPage)
	}))

	requireNotFound(t, scraper.Search(context.Background(), "Factorio"))
}

func TestSearchEmptyPage(t *testing.T) {
	scraper := newScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body></body></html>`)
	}))

	requireNotFound(t, scraper.Search(context.Background(), "anything"))
}

func TestSearchTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cleanup := telemetry.SetupForTesting(t, "test:scrapers/psn")
	t.Cleanup(cleanup)

	scraper := NewScraper(Options{BaseUrl: server.URL})
	requireNotFound(t, scraper.Search(context.Background(), "Stray"))
}

func requireNotFound(t *testing.T, result storefront.SearchResult) {
	t.Helper()
	require.False(t, result.Found)
	require.Empty(t, result.Title)
	require.Empty(t, result.URL)
	require.Equal(t, 0, result.Score)
	require.Equal(t, "Unavailable", result.PriceText)
	require.True(t, math.IsInf(result.PriceValue, 1))
}
