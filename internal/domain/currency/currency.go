// Package currency holds the static currency reference table: canonical
// codes, the textual aliases each currency is recognized by, and fixed
// conversion rates to the base currency. Rates are configuration, not
// live market data; callers refresh the table by reloading its file.
package currency

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Currency is one entry of the reference table. Rate is the amount of
// base currency one unit of this currency is worth.
type Currency struct {
	Code    string   `koanf:"code"`
	Aliases []string `koanf:"aliases"`
	Rate    float64  `koanf:"rate"`
}

// Table maps alias tokens to currencies and converts amounts between
// them. Immutable after construction; safe for concurrent use.
type Table struct {
	base       Currency
	byCode     map[string]Currency
	aliasIndex map[string]string // normalized alias -> canonical code
}

type tableFile struct {
	Base       string     `koanf:"base"`
	Currencies []Currency `koanf:"currencies"`
}

// NewTable builds a table from the given entries. The base code must be
// present and carry a rate of exactly 1.0. Every currency recognizes
// its own canonical code as an alias whether or not it is listed.
func NewTable(base string, currencies []Currency) (*Table, error) {
	t := &Table{
		byCode:     make(map[string]Currency, len(currencies)),
		aliasIndex: make(map[string]string, len(currencies)*4),
	}

	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, fmt.Errorf("base currency code is required")
	}

	for _, c := range currencies {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if c.Code == "" {
			return nil, fmt.Errorf("currency with empty code")
		}
		if c.Rate <= 0 {
			return nil, fmt.Errorf("currency %s: rate must be positive, got %v", c.Code, c.Rate)
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("currency %s: duplicate code", c.Code)
		}

		t.byCode[c.Code] = c
		t.aliasIndex[normalizeToken(c.Code)] = c.Code
		for _, a := range c.Aliases {
			key := normalizeToken(a)
			if key == "" {
				continue
			}
			if owner, taken := t.aliasIndex[key]; taken && owner != c.Code {
				return nil, fmt.Errorf("alias %q claimed by both %s and %s", a, owner, c.Code)
			}
			t.aliasIndex[key] = c.Code
		}
	}

	b, ok := t.byCode[base]
	if !ok {
		return nil, fmt.Errorf("base currency %s not present in table", base)
	}
	if b.Rate != 1.0 {
		return nil, fmt.Errorf("base currency %s must have rate 1.0, got %v", base, b.Rate)
	}
	t.base = b

	return t, nil
}

// Load reads a currency table from a YAML file.
func Load(path string) (*Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load currency table %s: %w", path, err)
	}

	var cfg tableFile
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse currency table %s: %w", path, err)
	}

	return NewTable(cfg.Base, cfg.Currencies)
}

// Base returns the base currency.
func (t *Table) Base() Currency {
	return t.base
}

// ResolveAlias maps a textual token (code, symbol, or localized
// spelling) to its currency. Unrecognized tokens resolve to the base
// currency; resolution never fails.
func (t *Table) ResolveAlias(token string) Currency {
	if code, ok := t.aliasIndex[normalizeToken(token)]; ok {
		return t.byCode[code]
	}
	return t.base
}

// Known reports whether the token resolves to an actual table entry
// rather than falling back to the base currency.
func (t *Table) Known(token string) bool {
	_, ok := t.aliasIndex[normalizeToken(token)]
	return ok
}

// ToBase converts an amount from the given currency to the base currency.
func (t *Table) ToBase(amount float64, c Currency) float64 {
	return amount * c.Rate
}

// FromBase converts a base-currency amount to the given currency.
func (t *Table) FromBase(amount float64, c Currency) float64 {
	return amount / c.Rate
}

// Convert converts an amount between two currencies through the base.
func (t *Table) Convert(amount float64, from, to Currency) float64 {
	return t.FromBase(t.ToBase(amount, from), to)
}

// Aliases returns every alias the table recognizes, longest first, so
// pattern builders can prefer the most specific token.
func (t *Table) Aliases() []string {
	out := make([]string, 0, len(t.aliasIndex))
	for a := range t.aliasIndex {
		out = append(out, a)
	}
	// Insertion sort by descending length; the table is small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func normalizeToken(token string) string {
	token = strings.TrimSpace(strings.ToLower(token))
	return strings.TrimSuffix(token, ".")
}

// Default returns the built-in table: Serbian dinar as base plus the
// currencies notifications from local banks commonly mention. Rates are
// static snapshots; deployments that care keep a YAML file instead.
func Default() *Table {
	t, err := NewTable("RSD", []Currency{
		{
			Code: "RSD",
			Rate: 1.0,
			Aliases: []string{
				"rsd", "din", "din.", "дин", "дин.", "динара", "динар", "dinara", "dinar",
			},
		},
		{
			Code: "EUR",
			Rate: 117.2,
			Aliases: []string{
				"eur", "€", "evra", "evro", "euro", "евра", "евро",
			},
		},
		{
			Code: "USD",
			Rate: 108.5,
			Aliases: []string{
				"usd", "$", "dolara", "dolar", "долара",
			},
		},
		{
			Code: "GBP",
			Rate: 136.9,
			Aliases: []string{
				"gbp", "£", "funti", "funta",
			},
		},
		{
			Code: "CHF",
			Rate: 124.3,
			Aliases: []string{
				"chf", "franaka", "franak",
			},
		},
		{
			Code: "HUF",
			Rate: 0.3,
			Aliases: []string{
				"huf", "ft", "forinti",
			},
		},
		{
			Code: "BAM",
			Rate: 59.9,
			Aliases: []string{
				"bam", "km", "maraka", "marka",
			},
		},
	})
	if err != nil {
		panic(err) // built-in table is validated by tests
	}
	return t
}
