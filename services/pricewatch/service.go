// Package pricewatch orchestrates one tracking run: read the wishlist
// sheet, look every game up on each storefront, reconcile historical
// minimums and write the results back in one batch.
package pricewatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pricewatch/lib/pricing"
	"pricewatch/lib/scrapers/storefront"
	"pricewatch/lib/sheets"
	"pricewatch/lib/timezone"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/pricewatch")

const lastUpdatedColumn = "Last Updated"

type Options struct {
	// Sheet is the worksheet holding the wishlist, "Wishlist" by
	// default.
	Sheet string
	// NameColumn identifies the game, "Name" by default. Rows with a
	// blank name are skipped entirely.
	NameColumn string
	// ItemDelay throttles outbound requests between wishlist items,
	// 1s by default.
	ItemDelay time.Duration
	Codec     *pricing.Codec
	// Notifier, when set, receives a digest of new historical lows
	// after the run.
	Notifier *Notifier
}

type Service struct {
	store    sheets.Store
	scrapers []storefront.Storefront
	codec    pricing.Codec
	opts     Options
}

func NewService(store sheets.Store, scrapers []storefront.Storefront, opts Options) Service {
	if opts.Sheet == "" {
		opts.Sheet = "Wishlist"
	}
	if opts.NameColumn == "" {
		opts.NameColumn = "Name"
	}
	if opts.ItemDelay == 0 {
		opts.ItemDelay = time.Second
	}
	codec := pricing.NewCodec()
	if opts.Codec != nil {
		codec = *opts.Codec
	}
	return Service{
		store:    store,
		scrapers: scrapers,
		codec:    codec,
		opts:     opts,
	}
}

// Outcome is the result of one storefront lookup for one wishlist item.
type Outcome struct {
	Game   string
	Source string
	Result storefront.SearchResult
	// NewLow reports that the historical minimum column was updated.
	NewLow bool
}

type RunSummary struct {
	RunID     string
	Started   time.Time
	Processed int
	Skipped   int
	Outcomes  []Outcome
}

func (s RunSummary) NewLows() []Outcome {
	var lows []Outcome
	for _, outcome := range s.Outcomes {
		if outcome.NewLow {
			lows = append(lows, outcome)
		}
	}
	return lows
}

func (s Service) currentColumn(source string) string {
	return fmt.Sprintf("%s Current Price", source)
}

func (s Service) lowestColumn(source string) string {
	return fmt.Sprintf("%s Lowest Price", source)
}

func (s Service) outputColumns() []string {
	var columns []string
	for _, scraper := range s.scrapers {
		columns = append(columns, s.currentColumn(scraper.Name()), s.lowestColumn(scraper.Name()))
	}
	return append(columns, lastUpdatedColumn)
}

// Run performs one full pass over the wishlist. Store access failures
// abort the run; storefront failures degrade to not-found per
// item/source and the run continues.
func (s Service) Run(ctx context.Context) (RunSummary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	summary := RunSummary{
		RunID:   uuid.NewString(),
		Started: timezone.Now(),
	}
	span.SetAttributes(attribute.String("run_id", summary.RunID))
	slog.InfoContext(ctx, "starting run", "run_id", summary.RunID, "sheet", s.opts.Sheet)

	for _, column := range s.outputColumns() {
		if err := s.store.EnsureColumn(ctx, s.opts.Sheet, column); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return summary, fmt.Errorf("ensure column %q: %w", column, err)
		}
	}

	header, err := s.store.Header(ctx, s.opts.Sheet)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, fmt.Errorf("read header: %w", err)
	}
	columnIndex := map[string]int{}
	for i, name := range header {
		columnIndex[name] = i + 1
	}
	if _, ok := columnIndex[s.opts.NameColumn]; !ok {
		err := fmt.Errorf("sheet %q has no %q column", s.opts.Sheet, s.opts.NameColumn)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}

	rows, err := s.store.ReadAll(ctx, s.opts.Sheet)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, fmt.Errorf("read rows: %w", err)
	}

	today := timezone.Now().Format("2006-01-02")

	for _, row := range rows {
		name := strings.TrimSpace(row[s.opts.NameColumn])
		if name == "" {
			summary.Skipped++
			continue
		}

		slog.InfoContext(ctx, "processing game", "game", name)
		for _, scraper := range s.scrapers {
			outcome := s.lookupSource(ctx, scraper, name, row)
			summary.Outcomes = append(summary.Outcomes, outcome)
		}
		row[lastUpdatedColumn] = today
		summary.Processed++

		// deliberate self-imposed rate limit toward the storefronts
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		case <-time.After(s.opts.ItemDelay):
		}
	}

	if err := s.writeBack(ctx, header, columnIndex, rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, fmt.Errorf("write results: %w", err)
	}

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.SendNewLows(ctx, summary); err != nil {
			// the run itself succeeded, a failed digest shouldn't
			// fail it
			slog.ErrorContext(ctx, "failed to send new-low digest", "err", err)
		}
	}

	slog.InfoContext(ctx, "run finished",
		"run_id", summary.RunID,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"new_lows", len(summary.NewLows()),
	)
	return summary, nil
}

func (s Service) lookupSource(ctx context.Context, scraper storefront.Storefront, name string, row sheets.Row) Outcome {
	result := scraper.Search(ctx, name)

	row[s.currentColumn(scraper.Name())] = result.PriceText

	lowest := s.lowestColumn(scraper.Name())
	newHistorical, changed := reconcileHistorical(s.codec, result, row[lowest])
	if changed {
		row[lowest] = newHistorical
		slog.InfoContext(ctx, "new historical minimum",
			"source", scraper.Name(), "game", name,
			"price", result.PriceText, "score", result.Score)
	} else {
		slog.InfoContext(ctx, "price recorded",
			"source", scraper.Name(), "game", name,
			"price", result.PriceText, "score", result.Score)
	}

	return Outcome{
		Game:   name,
		Source: scraper.Name(),
		Result: result,
		NewLow: changed && result.Found,
	}
}

// writeBack persists every output column in a single rectangular write
// spanning the leftmost to the rightmost output column. Cells of other
// columns caught inside the span are echoed back unchanged.
func (s Service) writeBack(ctx context.Context, header []string, columnIndex map[string]int, rows []sheets.Row) error {
	if len(rows) == 0 {
		return nil
	}

	minCol, maxCol := 0, 0
	for _, column := range s.outputColumns() {
		index := columnIndex[column]
		if minCol == 0 || index < minCol {
			minCol = index
		}
		if index > maxCol {
			maxCol = index
		}
	}

	values := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, maxCol-minCol+1)
		for col := minCol; col <= maxCol; col++ {
			line[col-minCol] = row[header[col-1]]
		}
		values[i] = line
	}

	// data starts on sheet row 2, below the header
	topLeft := sheets.CellRef(minCol, 2)
	bottomRight := sheets.CellRef(maxCol, len(rows)+1)
	slog.InfoContext(ctx, "writing results", "range", topLeft+":"+bottomRight)
	return s.store.WriteRange(ctx, s.opts.Sheet, topLeft, bottomRight, values)
}
