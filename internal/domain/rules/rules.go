// Package rules holds the keyword tables driving classification and
// category inference. The tables are ordered data, not control flow, so
// new locales and institutions are a config change rather than a code
// change. Built-in defaults cover Serbian and English banking text.
package rules

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ClassifierRules are the three keyword tiers, evaluated expense first,
// then income, then info. Matching is case-insensitive substring search,
// so entries may be word stems ("kartic" catches kartica, karticom).
type ClassifierRules struct {
	Expense []string `koanf:"expense"`
	Income  []string `koanf:"income"`
	Info    []string `koanf:"info"`
}

// CategoryGroup maps a keyword set to one spending category. Groups are
// evaluated in slice order; the first group with any keyword present
// wins, which is the disambiguation policy for terms that could belong
// to more than one group.
type CategoryGroup struct {
	Category string   `koanf:"category"`
	Keywords []string `koanf:"keywords"`
}

// Tables is the full rule set consumed by the pipeline.
type Tables struct {
	Classifier      ClassifierRules `koanf:"classifier"`
	Categories      []CategoryGroup `koanf:"categories"`
	DefaultCategory string          `koanf:"default_category"`
}

// Load reads rule tables from a YAML file and validates them.
func Load(path string) (*Tables, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load rule tables %s: %w", path, err)
	}

	var t Tables
	if err := k.Unmarshal("", &t); err != nil {
		return nil, fmt.Errorf("failed to parse rule tables %s: %w", path, err)
	}

	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule tables %s: %w", path, err)
	}
	return &t, nil
}

// Validate checks the structural invariants: every tier populated, every
// group named and non-empty, and a default category present.
func (t *Tables) Validate() error {
	if len(t.Classifier.Expense) == 0 {
		return fmt.Errorf("expense tier is empty")
	}
	if len(t.Classifier.Income) == 0 {
		return fmt.Errorf("income tier is empty")
	}
	if len(t.Classifier.Info) == 0 {
		return fmt.Errorf("info tier is empty")
	}
	if t.DefaultCategory == "" {
		return fmt.Errorf("default category is required")
	}
	for i, g := range t.Categories {
		if g.Category == "" {
			return fmt.Errorf("category group %d has no name", i)
		}
		if len(g.Keywords) == 0 {
			return fmt.Errorf("category group %q has no keywords", g.Category)
		}
	}
	return nil
}

func (t *Tables) normalize() {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	t.Classifier.Expense = lower(t.Classifier.Expense)
	t.Classifier.Income = lower(t.Classifier.Income)
	t.Classifier.Info = lower(t.Classifier.Info)
	for i := range t.Categories {
		t.Categories[i].Keywords = lower(t.Categories[i].Keywords)
	}
}

// Default returns the built-in rule set. Tier contents mirror what
// Serbian banking apps actually send, with English equivalents so mixed
// language notifications still classify.
func Default() *Tables {
	t := &Tables{
		Classifier: ClassifierRules{
			Expense: []string{
				// card usage / purchase
				"kartic", "card", "kupovina", "purchase",
				// payment / outflow
				"plaćanj", "placanj", "payment", "paid", "charged", "debited",
				"isplata", "terećenj", "terecenj",
				// POS / ATM
				"pos terminal", "pos transak", "bankomat", "atm", "podizanje",
				"withdraw",
				// fees
				"provizij", "naknada za", "fee", "commission",
			},
			Income: []string{
				"plata", "zarada", "salary", "wage", "bonus",
				"priliv", "uplata", "incoming transfer",
				"povraćaj", "povracaj", "refund", "reversal", "storno",
				"deposit", "credit",
			},
			Info: []string{
				"stanje", "balance", "raspoloživo", "raspolozivo",
				"podsetnik", "reminder",
				"otp", "verifikacij", "verification", "one-time", "kod za",
				"aktivacij", "activation",
			},
		},
		Categories: []CategoryGroup{
			{
				Category: "groceries",
				Keywords: []string{
					"maxi", "lidl", "idea", "roda", "univerexport", "aroma",
					"market", "grocer", "supermarket", "mega market",
					"restoran", "restaurant", "kafana", "kafic", "kafić", "cafe",
					"coffee", "pekara", "bakery", "picerija", "pizza", "burger",
					"mcdonald", "kfc", "glovo", "wolt", "donesi", "food",
				},
			},
			{
				Category: "transport",
				Keywords: []string{
					"nis petrol", "gazprom", "omv", "lukoil", "benzin", "gorivo",
					"fuel", "pumpa", "gas station", "parking", "putarina", "toll",
					"taksi", "taxi", "uber", "bolt", "cargo taxi", "bus plus",
					"gsp", "prevoz",
				},
			},
			{
				Category: "shopping",
				Keywords: []string{
					"prodavnica", "butik", "shop", "store", "retail", "mall",
					"zara", "h&m", "deichmann", "sport vision", "planeta sport",
					"gigatron", "tehnomanija", "emmezeta", "ikea", "jysk",
					"amazon", "aliexpress", "online kupovina",
				},
			},
			{
				Category: "health",
				Keywords: []string{
					"apoteka", "pharmacy", "benu", "lilly", "dom zdravlja",
					"bolnica", "hospital", "klinika", "clinic", "lekar", "doctor",
					"stomatolog", "dental", "laboratorij",
				},
			},
			{
				Category: "entertainment",
				Keywords: []string{
					"netflix", "spotify", "hbo", "disney", "youtube", "deezer",
					"steam", "playstation", "xbox", "twitch",
					"bioskop", "cinema", "cineplexx", "pozoriste", "pozorište",
					"pretplata", "subscription",
				},
			},
			{
				Category: "utilities",
				Keywords: []string{
					"eps snabdevanje", "elektrodistribucija", "struja", "infostan",
					"grejanje", "vodovod", "komunalij", "racun za", "račun za",
					"telekom", "mts", "yettel", "telenor", "sbb", "a1 srbija",
					"internet", "utility",
				},
			},
			{
				Category: "cash",
				Keywords: []string{
					"bankomat", "atm", "gotovina", "gotovine",
					"cash withdrawal", "podizanje", "cash",
				},
			},
		},
		DefaultCategory: "other",
	}
	t.normalize()
	return t
}
