// Package policy holds the outbound reply guard and the language heuristics
// shared by the engagement layer.
package policy

import (
	"regexp"
	"strings"
)

// giveawayPatterns match terms that would unmask the honeypot if they ever
// appeared in an outbound reply. Word-bounded so "scampi" or "robotics" in a
// template do not trip the guard.
var giveawayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bscams?\b`),
	regexp.MustCompile(`(?i)\bscammers?\b`),
	regexp.MustCompile(`(?i)\bfrauds?\b`),
	regexp.MustCompile(`(?i)\bfraudster\b`),
	regexp.MustCompile(`(?i)\bhoney\s?pot\b`),
	regexp.MustCompile(`(?i)\bbots?\b`),
	regexp.MustCompile(`(?i)\ba\.?i\.?\b`),
	regexp.MustCompile(`(?i)\bartificial intelligence\b`),
	regexp.MustCompile(`(?i)\blanguage model\b`),
	regexp.MustCompile(`(?i)\bcyber\s?crime\b`),
	regexp.MustCompile(`(?i)\breport(ing|ed)? you\b`),
	regexp.MustCompile(`(?i)\bpolice complaint\b`),
}

// LeaksCover reports whether the reply text would reveal that the other
// side is talking to a detection system rather than a mark.
func LeaksCover(reply string) bool {
	for _, re := range giveawayPatterns {
		if re.MatchString(reply) {
			return true
		}
	}
	return false
}

// hinglishMarkers are Romanized Hindi tokens common in Indian scam chats.
var hinglishMarkers = []string{
	"bhai", "haan", "haanji", "kya", "kyu", "nahi", "nahin",
	"sir ji", "beta", "paise", "paisa", "karo", "kar do",
	"jaldi", "abhi", "turant", "arre", "bhejo", "batao",
}

// IsHinglish reports whether the text reads as Hinglish. Matching is on
// whole words so "karoke" or "abhishek" do not count.
func IsHinglish(text string) bool {
	lower := " " + strings.ToLower(text) + " "
	for _, m := range hinglishMarkers {
		idx := 0
		for {
			i := strings.Index(lower[idx:], m)
			if i < 0 {
				break
			}
			at := idx + i
			before := lower[at-1]
			after := lower[at+len(m)]
			if !isLetter(before) && !isLetter(after) {
				return true
			}
			idx = at + len(m)
		}
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
