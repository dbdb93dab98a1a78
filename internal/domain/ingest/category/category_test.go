package category

import (
	"testing"

	"github.com/dinarko/dinarko/internal/domain/rules"
)

func TestInfer(t *testing.T) {
	tables := rules.Default()

	tests := []struct {
		name     string
		text     string
		merchant string
		want     string
	}{
		{
			name:     "grocery chain from merchant",
			text:     "card payment 1.234,56 rsd",
			merchant: "MAXI",
			want:     "groceries",
		},
		{
			name: "grocery chain from text",
			text: "purchase at maxi beograd 540,00 rsd",
			want: "groceries",
		},
		{
			name: "fuel",
			text: "plaćanje karticom nis petrol 4.800,00 rsd",
			want: "transport",
		},
		{
			name:     "pharmacy",
			text:     "kupovina 799,00 rsd",
			merchant: "Apoteka Benu",
			want:     "health",
		},
		{
			name: "subscription",
			text: "netflix subscription 1.199,00 rsd",
			want: "entertainment",
		},
		{
			name: "utility bill",
			text: "racun za struju infostan 3.200,00 rsd",
			want: "utilities",
		},
		{
			name: "atm cash",
			text: "podizanje gotovine bankomat 5.000,00 rsd",
			want: "cash",
		},
		{
			name: "nothing recognizable",
			text: "plaćanje 100,00 rsd",
			want: "other",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Infer(tc.text, tc.merchant, tables); got != tc.want {
				t.Errorf("Infer(%q, %q) = %q, want %q", tc.text, tc.merchant, got, tc.want)
			}
		})
	}
}

// Group order is the disambiguation policy: a text mentioning both a
// grocery chain and an ATM term lands in the earlier group.
func TestInfer_OrderWins(t *testing.T) {
	tables := rules.Default()

	got := Infer("kupovina maxi pored bankomata 500,00 rsd", "", tables)
	if got != "groceries" {
		t.Errorf("Infer = %q, want groceries (earlier group wins)", got)
	}
}

func TestInfer_EmptyGroupsUseDefault(t *testing.T) {
	tables := &rules.Tables{DefaultCategory: "misc"}
	if got := Infer("anything at all", "", tables); got != "misc" {
		t.Errorf("Infer = %q, want misc", got)
	}
}
