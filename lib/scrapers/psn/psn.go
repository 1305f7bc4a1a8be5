// Package psn implements the PlayStation Store search strategy.
package psn

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"time"

	"pricewatch/lib/fuzzy"
	"pricewatch/lib/htmlutil"
	"pricewatch/lib/pricing"
	"pricewatch/lib/restyutil"
	"pricewatch/lib/scrapers/storefront"
	"pricewatch/lib/telemetry"
	"pricewatch/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("scrapers/psn")

const defaultBaseUrl = "https://store.playstation.com"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// the store's obfuscated utility classes, in priority order: current or
// discounted price, struck-through original price, generic price label
const tilePriceSelector = "span.psw-m-r-3"
const strikePriceSelector = "span.psw-l-line-through"
const genericPriceSelector = "span.psw-h5"

const tileSelector = "div.psw-product-tile"
const tileTitleSelector = "span.psw-t-body, span.psw-h5"
const tileLinkSelector = "a.psw-top-left.psw-bottom-right.psw-stretched-link"

// a search that resolves to a single listing renders a page-level title
// instead of a result grid
const pageTitleSelector = "h1.psw-m-t-2xs.psw-t-title-l.psw-l-line-break-m, h1.psw-p-t-xs"

type Options struct {
	// BaseUrl overrides the production storefront, used in tests.
	BaseUrl string
	Codec   *pricing.Codec
	// DebugOutput, when set, receives a dump of every HTTP
	// transaction.
	DebugOutput restyutil.DumpOutput
}

type Scraper struct {
	baseUrl string
	client  *resty.Client
	codec   pricing.Codec
}

func NewScraper(opts Options) Scraper {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	codec := pricing.NewCodec()
	if opts.Codec != nil {
		codec = *opts.Codec
	}

	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, "scrapers/psn/http")
	restyutil.DumpTransactions(client, opts.DebugOutput)

	return Scraper{
		baseUrl: baseUrl,
		client:  client,
		codec:   codec,
	}
}

func (s Scraper) Name() string {
	return "PSN"
}

func (s Scraper) Search(ctx context.Context, gameName string) storefront.SearchResult {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("game", gameName))

	searchUrl := s.baseUrl + "/pt-br/search/" + url.PathEscape(gameName)

	res, err := s.client.R().
		SetContext(ctx).
		Get(searchUrl)
	if err != nil || res.StatusCode() >= 400 {
		slog.WarnContext(ctx, "psn search request failed",
			"game", gameName, "err", err, "status", res.StatusCode())
		return storefront.NotFound(s.codec)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		slog.WarnContext(ctx, "psn search page unparseable", "game", gameName, "err", err)
		return storefront.NotFound(s.codec)
	}

	query := textutil.NormalizeTitle(gameName)

	// the search may have redirected straight to a listing page
	bestScore := 0
	bestIsPage := false
	pageTitle := doc.Find(pageTitleSelector).First()
	if pageTitle.Length() > 0 {
		score := fuzzy.Ratio(query, textutil.NormalizeTitle(htmlutil.SelectionText(pageTitle)))
		if score >= fuzzy.SimilarityThreshold {
			bestScore = score
			bestIsPage = true
		}
	}

	tiles := doc.Find(tileSelector)
	if tiles.Length() > fuzzy.CandidateWindow {
		tiles = tiles.Slice(0, fuzzy.CandidateWindow)
	}

	var bestTile *goquery.Selection
	tiles.Each(func(_ int, tile *goquery.Selection) {
		title := htmlutil.SelectionText(tile.Find(tileTitleSelector).First())
		if title == "" {
			return
		}
		score := fuzzy.Ratio(query, textutil.NormalizeTitle(title))
		if score > bestScore {
			bestScore = score
			bestTile = tile
			bestIsPage = false
		}
	})

	if bestScore < fuzzy.SimilarityThreshold {
		slog.InfoContext(ctx, "psn: no confident match", "game", gameName, "best_score", bestScore)
		return storefront.NotFound(s.codec)
	}

	if bestIsPage {
		priceText := s.pagePrice(doc)
		return storefront.SearchResult{
			Found:      true,
			Title:      htmlutil.SelectionText(pageTitle),
			URL:        searchUrl,
			Score:      bestScore,
			PriceText:  priceText,
			PriceValue: s.codec.Parse(priceText),
		}
	}

	priceText := s.tilePrice(bestTile)
	return storefront.SearchResult{
		Found:      true,
		Title:      htmlutil.SelectionText(bestTile.Find(tileTitleSelector).First()),
		URL:        s.tileUrl(bestTile, searchUrl),
		Score:      bestScore,
		PriceText:  priceText,
		PriceValue: s.codec.Parse(priceText),
	}
}

func (s Scraper) pagePrice(doc *goquery.Document) string {
	for _, selector := range []string{tilePriceSelector, strikePriceSelector, genericPriceSelector} {
		price := doc.Find(selector).First()
		if price.Length() > 0 {
			return s.normalizePrice(htmlutil.SelectionText(price))
		}
	}
	return s.codec.UnavailableText
}

func (s Scraper) tilePrice(tile *goquery.Selection) string {
	for _, selector := range []string{tilePriceSelector, strikePriceSelector, genericPriceSelector} {
		price := tile.Find(selector).First()
		if price.Length() > 0 {
			return s.normalizePrice(htmlutil.SelectionText(price))
		}
	}
	return s.codec.UnavailableText
}

func (s Scraper) normalizePrice(text string) string {
	if text == "" {
		return s.codec.UnavailableText
	}
	if s.codec.IsFree(text) {
		return s.codec.FreeText
	}
	return text
}

// tileUrl resolves the listing link inside a product tile, falling back
// to the search url itself when the tile carries no usable link.
func (s Scraper) tileUrl(tile *goquery.Selection, searchUrl string) string {
	href := tile.Find(tileLinkSelector).First().AttrOr("href", "")
	if href == "" {
		href = tile.AttrOr("href", "")
	}
	if href == "" {
		return searchUrl
	}
	if parsed, err := url.Parse(href); err == nil && !parsed.IsAbs() {
		return s.baseUrl + href
	}
	return href
}
