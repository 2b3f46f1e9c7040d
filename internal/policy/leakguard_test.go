package policy

import "testing"

func TestLeaksCover(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"Beta, I cannot find the button, send the link again?", false},
		{"I know this is a scam, goodbye", true},
		{"You are a fraudster and I am reporting you", true},
		{"This sounds like an AI talking", true},
		{"I am a bot", true},
		{"The robotics club meets on Friday", false},
		{"We had scampi for dinner", false},
		{"I will file a police complaint", true},
	}
	for _, tt := range tests {
		if got := LeaksCover(tt.reply); got != tt.want {
			t.Errorf("LeaksCover(%q) = %v, want %v", tt.reply, got, tt.want)
		}
	}
}

func TestIsHinglish(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Haan bhai, paise bhejo jaldi", true},
		{"Your account is blocked, verify now", false},
		{"kya aapka kyc update hua?", true},
		{"My friend Abhishek likes karaoke", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHinglish(tt.text); got != tt.want {
			t.Errorf("IsHinglish(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
