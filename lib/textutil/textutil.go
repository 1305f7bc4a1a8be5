package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var parensRegex = regexp.MustCompile(`\(.*?\)`)
var bracketsRegex = regexp.MustCompile(`\[.*?\]`)

// platform and edition qualifiers that vary between storefront listings
// of the same game
var noiseRegexes = []*regexp.Regexp{
	regexp.MustCompile(`\bps4\b`),
	regexp.MustCompile(`\bps5\b`),
	regexp.MustCompile(`\bplaystation\b`),
	regexp.MustCompile(`\bdeluxe edition\b`),
	regexp.MustCompile(`\bspecial edition\b`),
	regexp.MustCompile(`\bstandard edition\b`),
	regexp.MustCompile(`\bultimate edition\b`),
	regexp.MustCompile(`\bremastered\b`),
	regexp.MustCompile(`\bgoty\b`),
	regexp.MustCompile(`\bgame of the year\b`),
	regexp.MustCompile(`\bedition\b`),
	regexp.MustCompile(`™`),
	regexp.MustCompile(`®`),
}

// NormalizeTitle strips listing noise from a game title so two listings
// of the same game compare equal. It is idempotent and must be applied
// to both sides of a comparison.
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	for _, re := range noiseRegexes {
		title = re.ReplaceAllString(title, "")
	}
	title = parensRegex.ReplaceAllString(title, "")
	title = bracketsRegex.ReplaceAllString(title, "")
	title = whitespaceRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}
