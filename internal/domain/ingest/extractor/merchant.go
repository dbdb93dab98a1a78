package extractor

import (
	"regexp"
	"strings"

	"github.com/dinarko/dinarko/internal/domain/currency"
)

const (
	// Merchant labels shorter than this are noise, longer ones get cut.
	minMerchantLen = 2
	maxMerchantLen = 50

	// A merchant span runs until a digit, sentence punctuation, or the
	// end of the text.
	merchantSpan = `([^0-9.,;:!?\n\r]+)`
)

// MerchantExtractor finds a short merchant label in raw notification
// text. The cascade order is fixed: a preposition-led span, then an
// explicit label, then whatever trails a currency token. Immutable
// after construction; safe for concurrent use.
type MerchantExtractor struct {
	rules []*regexp.Regexp
}

// NewMerchantExtractor compiles the cascade. The trailing-span rule is
// built from the table's aliases so it only fires after tokens the
// table actually resolves.
func NewMerchantExtractor(table *currency.Table) *MerchantExtractor {
	aliases := table.Aliases()
	quoted := make([]string, 0, len(aliases))
	for _, a := range aliases {
		quoted = append(quoted, regexp.QuoteMeta(a))
	}
	tokenAlt := `(?:` + strings.Join(quoted, "|") + `)`

	return &MerchantExtractor{
		rules: []*regexp.Regexp{
			// (a) "at MAXI", "kod IDEA", "@ Lidl", "near OMV"
			regexp.MustCompile(`(?i)(?:\bat\b|\bnear\b|\bkod\b|@)\s*` + merchantSpan),
			// (b) "merchant: MAXI", "prodajno mesto: IDEA"
			regexp.MustCompile(`(?i)(?:merchant|vendor|trgovac|prodajno mesto|prodavac)\s*[:=]\s*` + merchantSpan),
			// (c) "1.234,56 RSD MAXI BEOGRAD"
			regexp.MustCompile(`(?i)\d\s*` + tokenAlt + `\.?\s+` + merchantSpan),
		},
	}
}

// Extract returns the first acceptable merchant label, or "" when no
// rule matches, a normal outcome rather than an error. Matches below the
// minimum length are rejected and the cascade continues; accepted
// matches are truncated to the maximum length.
func (e *MerchantExtractor) Extract(raw string) string {
	for _, re := range e.rules {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		label := strings.TrimSpace(m[1])
		if len([]rune(label)) < minMerchantLen {
			continue
		}
		if r := []rune(label); len(r) > maxMerchantLen {
			label = string(r[:maxMerchantLen])
		}
		return label
	}
	return ""
}
