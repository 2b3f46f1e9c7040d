package extract

import (
	"testing"
)

func valuesOf(ents []Entity, c Category) []string {
	var out []string
	for _, e := range ents {
		if e.Category == c {
			out = append(out, e.Value)
		}
	}
	return out
}

func TestExtractScenarios(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[Category][]string
	}{
		{
			name: "otp with phone and link",
			text: "Your account is blocked, send OTP to 9876543210 and verify at http://fake-bank.com",
			want: map[Category][]string{
				CategoryPhone: {"9876543210"},
				CategoryLink:  {"http://fake-bank.com"},
			},
		},
		{
			name: "job offer upi",
			text: "Pay registration fee to upi id scammer@oksbi for your job offer",
			want: map[Category][]string{
				CategoryUPI: {"scammer@oksbi"},
			},
		},
		{
			name: "bank fraud full payload",
			text: "URGENT: Your SBI account has been compromised. Call +91-9876543210. Account: 1234567890123456 UPI: victim@oksbi Email: fraud@sbi-security.com",
			want: map[Category][]string{
				CategoryPhone:       {"919876543210"},
				CategoryBankAccount: {"1234567890123456"},
				CategoryUPI:         {"victim@oksbi"},
				CategoryEmail:       {"fraud@sbi-security.com"},
			},
		},
		{
			name: "sextortion payload",
			text: "Pay in Bitcoin or I send everything to your contacts. BTC: 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa Email: blackmail@proton.me Telegram: @blackmailer",
			want: map[Category][]string{
				CategoryBitcoin:  {"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"},
				CategoryEmail:    {"blackmail@proton.me"},
				CategoryTelegram: {"@blackmailer"},
			},
		},
		{
			name: "courier tracking",
			text: "Your parcel FEDEX-123456789 is held at customs, pay duty at www.customs-pay.in. now",
			want: map[Category][]string{
				CategoryTracking: {"FEDEX123456789"},
				CategoryLink:     {"www.customs-pay.in"},
			},
		},
		{
			name: "zero signal text",
			text: "ok I will check with my son and call you back tomorrow",
			want: map[Category][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			for _, c := range Categories() {
				want := tt.want[c]
				have := valuesOf(got, c)
				if len(have) != len(want) {
					t.Fatalf("category %s = %v, want %v", c, have, want)
				}
				for i := range want {
					if have[i] != want[i] {
						t.Fatalf("category %s[%d] = %q, want %q", c, i, have[i], want[i])
					}
				}
			}
		})
	}
}

func TestExtractPhoneForms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"bare indian", "call 9876543210 now", []string{"9876543210"}},
		{"prefixed indian", "call +91-9876543210 now", []string{"919876543210"}},
		{"unseparated country code", "call +919876543210 now", []string{"919876543210"}},
		{"us number", "dial +1-555-123-4567", []string{"15551234567"}},
		{"toll free", "helpline 1-800-123-4567", []string{"18001234567"}},
		{"repeated number collapses", "call 9876543210 or 9876543210", []string{"9876543210"}},
		{"landline style skipped", "office 011-2345678", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valuesOf(Extract(tt.text), CategoryPhone)
			if len(got) != len(tt.want) {
				t.Fatalf("phones = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("phones[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractPhonePrefixedAndBareShareKey(t *testing.T) {
	ents := Extract("call +91 9876543210 or just 9876543210")
	phones := valuesOf(ents, CategoryPhone)
	if len(phones) != 1 {
		t.Fatalf("phones = %v, want exactly one", phones)
	}
}

func TestExtractCreditCards(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"grouped visa", "card 4111-1111-1111-1111 expiry 12/26", []string{"4111-1111-1111-1111"}},
		{"plain visa normalizes to groups", "card 4111111111111111", []string{"4111-1111-1111-1111"}},
		{"amex prefix", "use 3412 3456 7890 1234", []string{"3412-3456-7890-1234"}},
		{"invalid prefix rejected", "number 1234-5678-9012-3456", nil},
		{"all zeros rejected", "number 0000000000000000", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valuesOf(Extract(tt.text), CategoryCreditCard)
			if len(got) != len(tt.want) {
				t.Fatalf("cards = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("cards[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractCategoryExclusivity(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category Category
		excluded []Category
	}{
		{
			name:     "ten digit run is phone only",
			text:     "send to 9876543210",
			category: CategoryPhone,
			excluded: []Category{CategoryBankAccount, CategoryGenericID},
		},
		{
			name:     "sixteen digit visa is card only",
			text:     "pay on 4111111111111111",
			category: CategoryCreditCard,
			excluded: []Category{CategoryBankAccount, CategoryGenericID},
		},
		{
			name:     "carrier code digits are tracking only",
			text:     "parcel FEDEX 987654321 seized",
			category: CategoryTracking,
			excluded: []Category{CategoryBankAccount, CategoryGenericID},
		},
		{
			name:     "upi handle is not a telegram id",
			text:     "transfer to victim@oksbi",
			category: CategoryUPI,
			excluded: []Category{CategoryTelegram, CategoryEmail},
		},
		{
			name:     "email keeps its handle tail",
			text:     "write to fraud@sbi-security.com",
			category: CategoryEmail,
			excluded: []Category{CategoryTelegram, CategoryUPI},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ents := Extract(tt.text)
			if got := valuesOf(ents, tt.category); len(got) != 1 {
				t.Fatalf("%s = %v, want exactly one", tt.category, got)
			}
			for _, c := range tt.excluded {
				if got := valuesOf(ents, c); len(got) != 0 {
					t.Fatalf("%s = %v, want none", c, got)
				}
			}
		})
	}
}

func TestExtractBankAccounts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"nine digits", "account 123456789", []string{"123456789"}},
		{"eighteen digits", "account 123456789012345678", []string{"123456789012345678"}},
		{"aadhaar shaped twelve digits suppressed", "aadhaar 123456789012", nil},
		{"aadhaar with spacing suppressed", "number 1234 5678 9012", nil},
		{"phone quoted with and without code", "call +91 9876543210, confirm on 919876543210", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valuesOf(Extract(tt.text), CategoryBankAccount)
			if len(got) != len(tt.want) {
				t.Fatalf("accounts = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("accounts[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractLinksTrimTrailingPunctuation(t *testing.T) {
	got := valuesOf(Extract("claim at http://lucky-draw.win/claim. hurry"), CategoryLink)
	if len(got) != 1 || got[0] != "http://lucky-draw.win/claim" {
		t.Fatalf("links = %v, want [http://lucky-draw.win/claim]", got)
	}
}

func TestExtractGenericIDs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"txn reference", "refund reference TXN-4521ABCD noted", []string{"TXN4521ABCD"}},
		{"order number", "your ORDER# A123456 is on hold", []string{"ORDERA123456"}},
		{"pan code", "share PAN ABCDE1234F for verification", []string{"ABCDE1234F"}},
		{"ifsc code", "transfer via SBIN0001234 branch", []string{"SBIN0001234"}},
		{"digitless prefix word ignored", "bring your id card and case file", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valuesOf(Extract(tt.text), CategoryGenericID)
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("ids[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractFoldsUnicodeDigits(t *testing.T) {
	got := valuesOf(Extract("call ９８７６５４３２１０ now"), CategoryPhone)
	if len(got) != 1 || got[0] != "9876543210" {
		t.Fatalf("phones = %v, want [9876543210]", got)
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "URGENT: call +91-9876543210, pay victim@oksbi, card 4111-1111-1111-1111, see http://fake-bank.com"
	a := Extract(text)
	b := Extract(text)
	if len(a) != len(b) {
		t.Fatalf("len mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("entity %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestExtractEmptyInput(t *testing.T) {
	if got := Extract("   "); got != nil {
		t.Fatalf("Extract(blank) = %v, want nil", got)
	}
}
