package classifier

import (
	"testing"

	"github.com/dinarko/dinarko/internal/domain/rules"
)

func TestClassify(t *testing.T) {
	r := rules.Default().Classifier

	tests := []struct {
		name      string
		title     string
		body      string
		autoTrack bool
		want      Kind
	}{
		{
			name:  "card payment is expense",
			title: "Card payment",
			body:  "Purchase at MAXI 1.234,56 RSD",
			want:  Expense,
		},
		{
			name:  "serbian card usage is expense",
			title: "Plaćanje karticom",
			body:  "MAXI BEOGRAD 540,00 RSD",
			want:  Expense,
		},
		{
			name:  "atm withdrawal is expense",
			title: "Podizanje gotovine",
			body:  "Bankomat 5.000,00 RSD",
			want:  Expense,
		},
		{
			name:      "salary with auto-track on is income",
			title:     "Incoming transfer",
			body:      "Salary 50.000,00 RSD",
			autoTrack: true,
			want:      Income,
		},
		{
			name:  "salary with auto-track off demotes to info",
			title: "Incoming transfer",
			body:  "Salary 50.000,00 RSD",
			want:  Info,
		},
		{
			name:      "refund with auto-track on is income",
			title:     "Povraćaj sredstava",
			body:      "Uplata 1.200,00 RSD",
			autoTrack: true,
			want:      Income,
		},
		{
			name:  "balance message is info",
			title: "Account balance",
			body:  "Available balance: 12.345,00 RSD",
			want:  Info,
		},
		{
			name:  "otp message is info",
			title: "Verification",
			body:  "Your OTP code is 123456",
			want:  Info,
		},
		{
			name:  "promotional text is unknown",
			title: "",
			body:  "Random promotional text",
			want:  Unknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(Normalize(tc.title, tc.body), tc.autoTrack, r)
			if got != tc.want {
				t.Errorf("Classify(%q, %q, autoTrack=%v) = %s, want %s",
					tc.title, tc.body, tc.autoTrack, got, tc.want)
			}
		})
	}
}

// The expense tier wins over everything else in the same message,
// regardless of income or info signals being present.
func TestClassify_ExpensePrecedence(t *testing.T) {
	r := rules.Default().Classifier

	texts := []string{
		"card usage 500,00 rsd available balance 12.000,00 rsd",
		"purchase refunded later salary note",
		"plaćanje karticom i stanje računa",
	}
	for _, text := range texts {
		for _, autoTrack := range []bool{false, true} {
			if got := Classify(text, autoTrack, r); got != Expense {
				t.Errorf("Classify(%q, autoTrack=%v) = %s, want expense", text, autoTrack, got)
			}
		}
	}
}

// Income demotion must land on Info, never Unknown: the signal is
// recognized, the user just opted out.
func TestClassify_IncomeGating(t *testing.T) {
	r := rules.Default().Classifier
	text := Normalize("Priliv", "Uplata zarade 80.000,00 RSD")

	if got := Classify(text, false, r); got != Info {
		t.Errorf("opted-out income = %s, want info", got)
	}
	if got := Classify(text, true, r); got != Income {
		t.Errorf("opted-in income = %s, want income", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	r := rules.Default().Classifier
	text := Normalize("Card payment", "Purchase at MAXI 1.234,56 RSD")

	first := Classify(text, false, r)
	for i := 0; i < 100; i++ {
		if got := Classify(text, false, r); got != first {
			t.Fatalf("iteration %d: got %s, want %s", i, got, first)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Card Payment", "MAXI  "); got != "card payment maxi" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestKindString(t *testing.T) {
	pairs := map[Kind]string{Expense: "expense", Income: "income", Info: "info", Unknown: "unknown"}
	for k, want := range pairs {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
