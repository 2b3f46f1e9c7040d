package extract

import "strings"

func normalizeLower(raw string) (string, bool) {
	return strings.ToLower(raw), true
}

func normalizeVerbatim(raw string) (string, bool) {
	return raw, true
}

func normalizeLink(raw string) (string, bool) {
	v := strings.TrimRight(raw, ".,;:!?)")
	return v, v != ""
}

// normalizePhone strips separators and keeps a leading country code when one
// was written. Bare national numbers stay bare; Key() canonicalizes the two
// forms onto one dedup key.
func normalizePhone(raw string) (string, bool) {
	d := digitsOf(raw)
	if len(d) < 10 {
		return "", false
	}
	return d, true
}

func normalizeCreditCard(raw string) (string, bool) {
	d := digitsOf(raw)
	if len(d) != 16 || d == strings.Repeat("0", 16) {
		return "", false
	}
	if !validCardPrefix(d) {
		return "", false
	}
	return d[0:4] + "-" + d[4:8] + "-" + d[8:12] + "-" + d[12:16], true
}

// validCardPrefix accepts the issuer ranges worth reporting: Visa,
// MasterCard, AmEx and the Discover/RuPay 6x block.
func validCardPrefix(d string) bool {
	switch d[0] {
	case '4', '5':
		return true
	}
	switch d[:2] {
	case "34", "37", "60", "64", "65":
		return true
	}
	return d[:4] == "6011"
}

func normalizeBankAccount(raw string) (string, bool) {
	if len(raw) == 12 { // Aadhaar-length, suppressed upstream as well
		return "", false
	}
	return raw, true
}

func normalizeTelegram(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "@") {
		return "", false
	}
	return "@" + strings.ToLower(raw[1:]), true
}

// normalizeCode upper-cases and strips separators from carrier and
// reference codes so "1Z 999 123456" and "1z999123456" collapse.
func normalizeCode(raw string) (string, bool) {
	v := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r == ' ' || r == '-' || r == '#' || r == '\t':
			return -1
		}
		return r
	}, raw)
	return v, v != ""
}

// normalizeGenericID additionally requires at least one digit: the prefix
// list is short words (ID, WIN, CASE...) that also start ordinary English
// words, and a reference code without a single digit is noise, not intel.
func normalizeGenericID(raw string) (string, bool) {
	v, ok := normalizeCode(raw)
	if !ok || !strings.ContainsAny(v, "0123456789") {
		return "", false
	}
	return v, true
}

func normalizeSuppressed(string) (string, bool) {
	return "", true
}

func digitsOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
