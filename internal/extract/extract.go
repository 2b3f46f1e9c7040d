// Package extract pulls structured intelligence out of scam message text:
// phone numbers, payment identifiers, links and the other artifacts a
// scammer leaks while trying to move a mark toward payment.
package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category is a fixed class of extractable intelligence.
type Category string

const (
	CategoryPhone       Category = "phone"
	CategoryBankAccount Category = "bank_account"
	CategoryUPI         Category = "upi_id"
	CategoryEmail       Category = "email"
	CategoryCreditCard  Category = "credit_card"
	CategoryBitcoin     Category = "bitcoin_address"
	CategoryTelegram    Category = "telegram_id"
	CategoryTracking    Category = "tracking_number"
	CategoryGenericID   Category = "generic_id"
	CategoryLink        Category = "phishing_link"
)

// Categories returns the full enumeration in reporting order.
func Categories() []Category {
	return []Category{
		CategoryPhone,
		CategoryBankAccount,
		CategoryUPI,
		CategoryLink,
		CategoryEmail,
		CategoryCreditCard,
		CategoryBitcoin,
		CategoryTelegram,
		CategoryTracking,
		CategoryGenericID,
	}
}

// HighRisk reports whether first sight of the category counts as a red flag.
func HighRisk(c Category) bool {
	switch c {
	case CategoryBankAccount, CategoryCreditCard, CategoryBitcoin:
		return true
	}
	return false
}

// Entity is one extracted value. Value is the normalized form used for
// display; Raw is the literal match. TurnIndex is filled by the caller that
// knows which turn the text came from.
type Entity struct {
	Category  Category `json:"category"`
	Value     string   `json:"value"`
	Raw       string   `json:"raw"`
	TurnIndex int      `json:"turn_index"`
}

// Key returns the deduplication key for the entity. Phones canonicalize to
// country-coded digits so "+91 98765..." and the bare form collapse; every
// other category already normalizes Value to its canonical form.
func (e Entity) Key() string {
	v := e.Value
	if e.Category == CategoryPhone {
		if len(v) == 10 && v[0] >= '6' && v[0] <= '9' {
			v = "91" + v
		}
	}
	return string(e.Category) + ":" + v
}

// span is a half-open byte range in the folded input text.
type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// Extract runs every category matcher over the text and returns the
// surviving entities in matcher order, deduplicated within the call.
//
// Matchers run in a fixed priority order and each accepted match claims its
// byte span; later candidates overlapping a claimed span are dropped. The
// order places phone before bank account before generic id, so a digit run
// is never emitted under two categories, and lets email/UPI matches keep
// their "@suffix" tail away from the Telegram matcher. Malformed candidates
// are dropped silently; the result is simply smaller.
func Extract(text string) []Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	// Compatibility fold so fullwidth digits and similar unicode dressing
	// used to dodge filters still hit the ASCII patterns.
	folded := norm.NFKC.String(text)

	var (
		entities []Entity
		claims   []span
		seen     = make(map[string]bool)
		phones   []string
	)

	claimed := func(s span) bool {
		for _, c := range claims {
			if s.overlaps(c) {
				return true
			}
		}
		return false
	}

	for _, m := range matchers {
		locs := m.find(folded)
		for _, loc := range locs {
			s := span{loc[0], loc[1]}
			if claimed(s) {
				continue
			}
			if m.digitGuard && hasDigitNeighbor(folded, s) {
				continue
			}
			raw := folded[s.start:s.end]
			if m.precededByWord && s.start > 0 && isWordByte(folded[s.start-1]) {
				continue
			}
			value, ok := m.normalize(raw)
			if !ok {
				continue
			}
			if m.category == CategoryBankAccount && relatedToPhone(value, phones) {
				continue
			}
			claims = append(claims, s)
			if m.category == "" {
				continue // suppressor: claims the span, emits nothing
			}
			ent := Entity{Category: m.category, Value: value, Raw: raw}
			if seen[ent.Key()] {
				continue
			}
			seen[ent.Key()] = true
			if m.category == CategoryPhone {
				phones = append(phones, digitsOf(value))
			}
			entities = append(entities, ent)
		}
	}
	return entities
}

// relatedToPhone drops bank-account candidates whose digits contain or are
// contained by a phone number already found in this text, which otherwise
// show up when a number is quoted once with and once without country code.
func relatedToPhone(digits string, phones []string) bool {
	for _, p := range phones {
		if strings.Contains(p, digits) || strings.Contains(digits, p) {
			return true
		}
	}
	return false
}

func hasDigitNeighbor(text string, s span) bool {
	if s.start > 0 && isDigitByte(text[s.start-1]) {
		return true
	}
	if s.end < len(text) && isDigitByte(text[s.end]) {
		return true
	}
	return false
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func isWordByte(b byte) bool {
	return b == '_' || b == '.' || b == '@' ||
		(b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
