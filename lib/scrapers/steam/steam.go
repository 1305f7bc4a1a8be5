// Package steam implements the Steam storefront search strategy.
package steam

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pricewatch/lib/fuzzy"
	"pricewatch/lib/htmlutil"
	"pricewatch/lib/pricing"
	"pricewatch/lib/restyutil"
	"pricewatch/lib/scrapers/storefront"
	"pricewatch/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("scrapers/steam")

const defaultBaseUrl = "https://store.steampowered.com"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// price selectors, discounted first
const discountPriceSelector = ".search_price.discounted, .discount_final_price"
const regularPriceSelector = ".search_price"
const detailTitleSelector = "div.apphub_AppName, div.game_title_area h1, #appHubAppName"
const detailPriceSelector = ".game_purchase_price, .discount_block .discount_final_price, .price_discount .discount_final_price"

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
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	// steam hides mature listings behind an age gate, these cookies
	// walk straight past it
	client.SetCookies([]*http.Cookie{
		{Name: "birthtime", Value: "86400"},
		{Name: "wants_mature_content", Value: "1"},
		{Name: "mature_content", Value: "1"},
	})
	telemetry.InstrumentResty(client, "scrapers/steam/http")
	restyutil.DumpTransactions(client, opts.DebugOutput)

	return Scraper{
		baseUrl: baseUrl,
		client:  client,
		codec:   codec,
	}
}

func (s Scraper) Name() string {
	return "Steam"
}

func (s Scraper) Search(ctx context.Context, gameName string) storefront.SearchResult {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("game", gameName))

	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"term": gameName,
			"l":    "brazilian",
			"cc":   "br",
		}).
		Get(s.baseUrl + "/search/")
	if err != nil || res.StatusCode() >= 400 {
		slog.WarnContext(ctx, "steam search request failed",
			"game", gameName, "err", err, "status", res.StatusCode())
		return storefront.NotFound(s.codec)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		slog.WarnContext(ctx, "steam search page unparseable", "game", gameName, "err", err)
		return storefront.NotFound(s.codec)
	}

	results := doc.Find("#search_resultsRows a")

	var candidates []fuzzy.Candidate
	results.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= fuzzy.CandidateWindow {
			return false
		}
		title := htmlutil.SelectionText(sel.Find("span.title"))
		if title != "" {
			candidates = append(candidates, fuzzy.Candidate{ID: i, Title: title})
		}
		return true
	})

	match, ok := fuzzy.BestMatch(gameName, candidates)
	if ok {
		winner := results.Eq(match.ID)
		result := storefront.SearchResult{
			Found:      true,
			Title:      htmlutil.SelectionText(winner.Find("span.title")),
			URL:        s.absoluteUrl(winner.AttrOr("href", "")),
			Score:      match.Score,
			PriceText:  s.extractListPrice(winner),
			PriceValue: 0,
		}
		result.PriceValue = s.codec.Parse(result.PriceText)
		return result
	}

	// search listings are sometimes censored or truncated while the
	// listing's own page still resolves, so visit the first candidate
	// directly before giving up
	firstHref := results.First().AttrOr("href", "")
	if firstHref == "" {
		slog.InfoContext(ctx, "steam: no confident match and no fallback candidate", "game", gameName)
		return storefront.NotFound(s.codec)
	}
	return s.searchFallback(ctx, gameName, s.absoluteUrl(firstHref))
}

// searchFallback fetches a listing page directly and accepts it only if
// its own title also clears the similarity threshold.
func (s Scraper) searchFallback(ctx context.Context, gameName, pageUrl string) storefront.SearchResult {
	ctx, span := tracer.Start(ctx, "searchFallback")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageUrl))

	res, err := s.client.R().
		SetContext(ctx).
		Get(pageUrl)
	if err != nil || res.StatusCode() >= 400 {
		slog.WarnContext(ctx, "steam fallback request failed",
			"game", gameName, "url", pageUrl, "err", err)
		return storefront.NotFound(s.codec)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return storefront.NotFound(s.codec)
	}

	title := htmlutil.SelectionText(doc.Find(detailTitleSelector).First())
	if title == "" {
		slog.InfoContext(ctx, "steam fallback page has no title", "game", gameName, "url", pageUrl)
		return storefront.NotFound(s.codec)
	}

	match, ok := fuzzy.BestMatch(gameName, []fuzzy.Candidate{{ID: 0, Title: title}})
	if !ok {
		slog.InfoContext(ctx, "steam fallback title below threshold", "game", gameName, "title", title)
		return storefront.NotFound(s.codec)
	}

	priceText := s.normalizePrice(htmlutil.SelectionText(doc.Find(detailPriceSelector).First()))
	return storefront.SearchResult{
		Found:      true,
		Title:      title,
		URL:        pageUrl,
		Score:      match.Score,
		PriceText:  priceText,
		PriceValue: s.codec.Parse(priceText),
	}
}

func (s Scraper) extractListPrice(sel *goquery.Selection) string {
	price := sel.Find(discountPriceSelector).First()
	if price.Length() == 0 {
		price = sel.Find(regularPriceSelector).First()
	}
	return s.normalizePrice(htmlutil.SelectionText(price))
}

// normalizePrice turns raw listing price text into the stored form:
// free sentinel, unavailable sentinel, or "R$ <amount>". Discount
// blocks render old and new price in one node, the amount after the
// last currency marker is the effective one.
func (s Scraper) normalizePrice(text string) string {
	if text == "" {
		return s.codec.UnavailableText
	}
	if s.codec.IsFree(text) {
		return s.codec.FreeText
	}
	if idx := strings.LastIndex(text, "R$"); idx >= 0 {
		amount := strings.TrimSpace(text[idx+len("R$"):])
		if amount == "" {
			return s.codec.UnavailableText
		}
		return "R$ " + amount
	}
	return text
}

func (s Scraper) absoluteUrl(href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(s.baseUrl)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
