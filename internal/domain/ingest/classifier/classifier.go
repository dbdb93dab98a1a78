// Package classifier decides what kind of financial event a bank
// notification describes. It is a pure keyword engine over three fixed
// priority tiers; every list it matches against comes from the rule
// tables so per-bank and per-locale tuning never touches this code.
package classifier

import (
	"strings"

	"github.com/dinarko/dinarko/internal/domain/rules"
)

// Kind is the classification of one notification.
type Kind int

const (
	Unknown Kind = iota
	Expense
	Income
	Info
)

func (k Kind) String() string {
	switch k {
	case Expense:
		return "expense"
	case Income:
		return "income"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Normalize produces the classifier input from a notification's title
// and body: lower-cased, whitespace-trimmed concatenation.
func Normalize(title, body string) string {
	return strings.ToLower(strings.TrimSpace(title + " " + body))
}

// Classify runs the three tiers in fixed order, first hit wins:
//
//  1. Any expense-tier keyword makes the notification an Expense, no
//     matter what else it mentions. A message carrying both a card-usage
//     term and a balance figure is a spend, not an account statement.
//  2. Income-tier keywords yield Income only when the user opted into
//     income tracking; otherwise the signal is recognized but demoted to
//     Info, deliberately not Unknown.
//  3. Info-tier keywords yield Info.
//
// Anything else is Unknown. Pure function of its inputs.
func Classify(normalized string, autoTrackIncome bool, r rules.ClassifierRules) Kind {
	switch {
	case containsAny(normalized, r.Expense):
		return Expense
	case containsAny(normalized, r.Income):
		if autoTrackIncome {
			return Income
		}
		return Info
	case containsAny(normalized, r.Info):
		return Info
	default:
		return Unknown
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
