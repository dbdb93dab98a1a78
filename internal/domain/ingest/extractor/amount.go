// Package extractor pulls structured fields out of raw notification
// text: a monetary amount with its currency, and an optional merchant
// label. Both extractors are ordered pattern cascades; the first rule
// that matches and yields a usable value wins.
package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dinarko/dinarko/internal/domain/currency"
)

// Amount is one successful extraction: a positive value and the
// currency it was stated in.
type Amount struct {
	Value    float64
	Currency currency.Currency
}

const (
	// numStart keeps a numeral rule from matching inside a longer digit
	// run, e.g. the "234.56" tail of "1,234.56".
	numStart = `(?:^|[^\d.,])`
	// curToken matches a currency code, a currency symbol, or a local
	// dinar spelling. Resolution of the token is the table's job; an
	// unrecognized three-letter word resolves to the base currency.
	curToken = `((?:[A-Za-z]{3})|\p{Sc}|дин\.?|din\.?)`
	// curEnd stops a three-letter code from matching the head of a
	// longer word.
	curEnd = `(?:[^\p{L}\d]|$)`
)

// amountRule is one step of the cascade. amountGroup and currencyGroup
// index into the submatches; currencyGroup 0 means the rule carries no
// currency token and the amount is taken to be in the base currency.
type amountRule struct {
	name          string
	re            *regexp.Regexp
	amountGroup   int
	currencyGroup int
}

// The cascade, in fixed priority order. Earlier rules are more specific
// about locale so they must win: "1.234,56 RSD" has to parse as the
// European form before the plain-dot rule gets a chance to misread it.
var amountRules = []amountRule{
	{
		name:          "dot-grouped comma-decimal with token",
		re:            regexp.MustCompile(numStart + `(\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?)\s*` + curToken + curEnd),
		amountGroup:   1,
		currencyGroup: 2,
	},
	{
		name:          "comma-decimal with token",
		re:            regexp.MustCompile(numStart + `(\d+,\d{1,2})\s*` + curToken + curEnd),
		amountGroup:   1,
		currencyGroup: 2,
	},
	{
		name:          "comma-grouped dot-decimal with token",
		re:            regexp.MustCompile(numStart + `(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?)\s*` + curToken + curEnd),
		amountGroup:   1,
		currencyGroup: 2,
	},
	{
		name:          "dot-decimal with token",
		re:            regexp.MustCompile(numStart + `(\d+\.\d{1,2})\s*` + curToken + curEnd),
		amountGroup:   1,
		currencyGroup: 2,
	},
	{
		name:          "integer with token",
		re:            regexp.MustCompile(numStart + `(\d{1,3}(?:[.,]\d{3})+|\d+)\s*` + curToken + curEnd),
		amountGroup:   1,
		currencyGroup: 2,
	},
	{
		name:          "symbol-prefixed",
		re:            regexp.MustCompile(`(\p{Sc})\s*(\d(?:[\d.,]*\d)?)`),
		amountGroup:   2,
		currencyGroup: 1,
	},
	{
		name:          "symbol-suffixed",
		re:            regexp.MustCompile(numStart + `(\d(?:[\d.,]*\d)?)\s*(\p{Sc})`),
		amountGroup:   1,
		currencyGroup: 2,
	},
	{
		name:        "label-prefixed",
		re:          regexp.MustCompile(`(?i)(?:amount|iznos|износ)\s*[:=]?\s*(\d(?:[\d.,]*\d)?)`),
		amountGroup: 1,
	},
}

// dotGrouped recognizes numerals that are nothing but dot-separated
// three-digit groups, e.g. "50.000": for those the dot is a thousands
// separator and there are no decimals.
var dotGrouped = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)

// commaGrouped is the comma analogue, e.g. "1,234,567". A numeral with
// several commas that do not all delimit three-digit groups is
// malformed, not a grouping convention.
var commaGrouped = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)

// ExtractAmount runs the cascade over the raw (case-preserving) text.
// A rule counts as a hit only when its numeral parses to a positive
// value; otherwise the cascade moves on. The boolean is false when no
// rule produced a usable amount, a normal terminal state rather than
// an error.
func ExtractAmount(raw string, table *currency.Table) (Amount, bool) {
	for _, rule := range amountRules {
		m := rule.re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		value, err := parseNumeral(m[rule.amountGroup])
		if err != nil || value <= 0 {
			continue
		}

		cur := table.Base()
		if rule.currencyGroup > 0 {
			cur = table.ResolveAlias(m[rule.currencyGroup])
		}

		return Amount{Value: value, Currency: cur}, true
	}
	return Amount{}, false
}

// parseNumeral resolves the separator convention of a numeral string:
//
//   - both separators present: the rightmost one is the decimal point,
//     the other is thousands grouping;
//   - only a comma: a single comma is the decimal point; several commas
//     must all delimit three-digit groups, anything else is malformed;
//   - only dots, all in three-digit groups: thousands grouping with no
//     decimals; any other lone dot is the decimal point.
func parseNumeral(s string) (float64, error) {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		if !commaGrouped.MatchString(s) {
			return 0, fmt.Errorf("malformed comma grouping in %q", s)
		}
		s = strings.ReplaceAll(s, ",", "")
	case dots > 0 && dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	return strconv.ParseFloat(s, 64)
}
