package pricewatch

import (
	"context"
	"math"
	"testing"
	"time"

	"pricewatch/lib/pricing"
	"pricewatch/lib/scrapers/storefront"
	"pricewatch/lib/sheets"
	"pricewatch/lib/sheets/sqlitestore"
	"pricewatch/lib/testutil"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

type fakeStorefront struct {
	name    string
	results map[string]storefront.SearchResult
	queried []string
}

func (f *fakeStorefront) Name() string {
	return f.name
}

func (f *fakeStorefront) Search(ctx context.Context, gameName string) storefront.SearchResult {
	f.queried = append(f.queried, gameName)
	result, ok := f.results[gameName]
	if !ok {
		return storefront.NotFound(pricing.NewCodec())
	}
	return result
}

func foundResult(title, priceText string, priceValue float64, score int) storefront.SearchResult {
	return storefront.SearchResult{
		Found:      true,
		Title:      title,
		PriceText:  priceText,
		PriceValue: priceValue,
		URL:        "https://example.com/" + title,
		Score:      score,
	}
}

func setupSheet(t *testing.T, names []string) sqlitestore.Store {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/pricewatch",
		DbSchema: sqlitestore.Schema,
	})
	t.Cleanup(cleanup)
	t.Cleanup(func() { res.DB.Close() })

	store := sqlitestore.New(res.DB)
	ctx := context.Background()

	require.NoError(t, store.EnsureColumn(ctx, "Wishlist", "Name"))
	if len(names) > 0 {
		rows := make([][]string, len(names))
		for i, name := range names {
			rows[i] = []string{name}
		}
		err := store.WriteRange(ctx, "Wishlist", "A2", sheets.CellRef(1, len(names)+1), rows)
		require.NoError(t, err)
	}
	return store
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()

	store := setupSheet(t, []string{"Hades", "", "Celeste"})

	steam := &fakeStorefront{
		name: "Steam",
		results: map[string]storefront.SearchResult{
			"Hades":   foundResult("Hades", "R$ 47,49", 48, 100),
			"Celeste": foundResult("Celeste", "Free", 0, 100),
		},
	}
	psn := &fakeStorefront{
		name: "PSN",
		results: map[string]storefront.SearchResult{
			"Hades": foundResult("Hades", "R$ 99,50", 100, 95),
		},
	}

	service := NewService(store, []storefront.Storefront{steam, psn}, Options{
		ItemDelay: time.Millisecond,
	})

	summary, err := service.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Outcomes, 4)

	// the blank row was never sent to a storefront
	require.Equal(t, []string{"Hades", "Celeste"}, steam.queried)
	require.Equal(t, []string{"Hades", "Celeste"}, psn.queried)

	rows, err := store.ReadAll(ctx, "Wishlist")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, "R$ 47,49", rows[0]["Steam Current Price"])
	require.Equal(t, "R$ 47,49", rows[0]["Steam Lowest Price"])
	require.Equal(t, "R$ 99,50", rows[0]["PSN Current Price"])
	require.Equal(t, "R$ 99,50", rows[0]["PSN Lowest Price"])
	require.NotEmpty(t, rows[0]["Last Updated"])

	// the blank row's cells were not populated
	require.Empty(t, rows[1]["Name"])
	require.Empty(t, rows[1]["Steam Current Price"])
	require.Empty(t, rows[1]["Last Updated"])

	require.Equal(t, "Free", rows[2]["Steam Current Price"])
	require.Equal(t, "Free", rows[2]["Steam Lowest Price"])
	// psn never found celeste
	require.Equal(t, "Unavailable", rows[2]["PSN Current Price"])
	require.Equal(t, "", rows[2]["PSN Lowest Price"])
}

func TestRunKeepsLowerHistoricalPrice(t *testing.T) {
	ctx := context.Background()

	store := setupSheet(t, []string{"Hades"})

	steam := &fakeStorefront{
		name: "Steam",
		results: map[string]storefront.SearchResult{
			"Hades": foundResult("Hades", "65", 65, 100),
		},
	}
	service := NewService(store, []storefront.Storefront{steam}, Options{
		ItemDelay: time.Millisecond,
	})

	// seed history below the current price
	require.NoError(t, store.EnsureColumn(ctx, "Wishlist", "Steam Current Price"))
	require.NoError(t, store.EnsureColumn(ctx, "Wishlist", "Steam Lowest Price"))
	require.NoError(t, store.WriteRange(ctx, "Wishlist", "C2", "C2", [][]string{{"59"}}))

	_, err := service.Run(ctx)
	require.NoError(t, err)

	rows, err := store.ReadAll(ctx, "Wishlist")
	require.NoError(t, err)
	require.Equal(t, "65", rows[0]["Steam Current Price"])
	require.Equal(t, "59", rows[0]["Steam Lowest Price"])
}

func TestRunMissingNameColumn(t *testing.T) {
	ctx := context.Background()

	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/pricewatch",
		DbSchema: sqlitestore.Schema,
	})
	t.Cleanup(cleanup)
	t.Cleanup(func() { res.DB.Close() })
	store := sqlitestore.New(res.DB)

	require.NoError(t, store.EnsureColumn(ctx, "Wishlist", "Jogo"))

	service := NewService(store, nil, Options{ItemDelay: time.Millisecond})
	_, err := service.Run(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"Name"`)
}

func TestRunEmptySheet(t *testing.T) {
	store := setupSheet(t, nil)
	service := NewService(store, nil, Options{ItemDelay: time.Millisecond})

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, summary.Processed)
	require.Equal(t, 0, summary.Skipped)
}

func TestRunSendsNewLowDigest(t *testing.T) {
	store := setupSheet(t, []string{"Hades"})

	steam := &fakeStorefront{
		name: "Steam",
		results: map[string]storefront.SearchResult{
			"Hades": foundResult("Hades", "R$ 47,49", 48, 100),
		},
	}

	var sent []*email.Email
	notifier := NewNotifier(SMTPConfig{From: "bot@example.com", To: []string{"me@example.com"}})
	notifier.send = func(e *email.Email) error {
		sent = append(sent, e)
		return nil
	}

	service := NewService(store, []storefront.Storefront{steam}, Options{
		ItemDelay: time.Millisecond,
		Notifier:  notifier,
	})

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.NewLows(), 1)

	require.Len(t, sent, 1)
	require.Contains(t, string(sent[0].Text), "Hades")
	require.Contains(t, string(sent[0].Text), "R$ 47,49")
}

func TestNotFoundNeverBecomesHistory(t *testing.T) {
	codec := pricing.NewCodec()
	result := storefront.NotFound(codec)

	require.False(t, result.Found)
	require.True(t, math.IsInf(result.PriceValue, 1))

	_, changed := reconcileHistorical(codec, result, "")
	require.False(t, changed)
}
