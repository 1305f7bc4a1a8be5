// Package pricing converts between storefront price strings and a
// canonical numeric form. 0 means free, +Inf means unknown/unavailable.
package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rounding picks how fractional prices collapse to whole units.
type Rounding int

const (
	// RoundCeil biases toward not under-reporting a price.
	RoundCeil Rounding = iota
	RoundNearest
)

type Codec struct {
	// DecimalComma treats "," as the decimal separator and "." as a
	// thousands separator. When false the roles are inverted.
	DecimalComma bool
	Rounding     Rounding

	FreeTokens        []string
	UnavailableTokens []string
	CurrencyPrefixes  []string

	// sentinel strings emitted by Format
	FreeText        string
	UnavailableText string
}

// NewCodec returns a codec for the pt-BR storefront convention
// ("R$ 1.234,56") with ceiling rounding.
func NewCodec() Codec {
	return Codec{
		DecimalComma: true,
		Rounding:     RoundCeil,
		FreeTokens:   []string{"free", "gratuito", "grátis", "gratis"},
		UnavailableTokens: []string{
			"unavailable",
			"not found",
			"preço indisponível",
			"preco indisponivel",
			"não encontrado",
			"nao encontrado",
			"indisponível",
			"indisponivel",
		},
		CurrencyPrefixes: []string{"r$", "us$", "u$", "$"},
		FreeText:         "Free",
		UnavailableText:  "Unavailable",
	}
}

var numericRun = regexp.MustCompile(`\d[\d.]*`)

func (c Codec) IsFree(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, tok := range c.FreeTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func (c Codec) isUnavailable(text string) bool {
	for _, tok := range c.UnavailableTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// Parse is total: any input, including garbage, yields a value. Sentinel
// tokens map to 0 and +Inf, everything unparseable maps to +Inf.
func (c Codec) Parse(text string) float64 {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return math.Inf(1)
	}
	if c.IsFree(text) {
		return 0
	}
	if c.isUnavailable(text) {
		return math.Inf(1)
	}

	for _, prefix := range c.CurrencyPrefixes {
		text = strings.ReplaceAll(text, prefix, "")
	}
	if c.DecimalComma {
		text = strings.ReplaceAll(text, ".", "")
		text = strings.ReplaceAll(text, ",", ".")
	} else {
		text = strings.ReplaceAll(text, ",", "")
	}
	text = strings.TrimSpace(text)

	run := numericRun.FindString(text)
	if run == "" {
		return math.Inf(1)
	}
	value, err := strconv.ParseFloat(strings.TrimRight(run, "."), 64)
	if err != nil {
		return math.Inf(1)
	}

	switch c.Rounding {
	case RoundNearest:
		return math.Round(value)
	default:
		return math.Ceil(value)
	}
}

// Format renders the canonical persisted form: a plain numeral without
// currency markup, or a sentinel string.
func (c Codec) Format(value float64) string {
	if value == 0 {
		return c.FreeText
	}
	if math.IsInf(value, 1) || math.IsNaN(value) || value < 0 {
		return c.UnavailableText
	}
	return strconv.FormatInt(int64(value), 10)
}
