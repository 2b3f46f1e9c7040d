package classify

import (
	"math"
	"testing"

	"github.com/antoniostano/jaal/internal/extract"
)

func TestObserveBankFraudMessage(t *testing.T) {
	c := New(DefaultParams())
	state := &State{}

	res := c.Observe(state, "Your account is blocked, share OTP immediately to verify", nil)
	if res.Type != TypeBankFraud {
		t.Fatalf("Type = %q, want %q", res.Type, TypeBankFraud)
	}
	if res.Confidence <= 0 {
		t.Fatalf("Confidence = %v, want > 0", res.Confidence)
	}
	if res.SignalCount == 0 {
		t.Fatalf("SignalCount = 0, want > 0")
	}
}

func TestObserveUnclassifiedOnNoSignals(t *testing.T) {
	c := New(DefaultParams())
	state := &State{}

	res := c.Observe(state, "hello, how are you today", nil)
	if res.Type != TypeUnclassified {
		t.Fatalf("Type = %q, want %q", res.Type, TypeUnclassified)
	}
	if res.Detected {
		t.Fatalf("Detected = true, want false")
	}
	if res.Confidence != 0 {
		t.Fatalf("Confidence = %v, want 0", res.Confidence)
	}
}

func TestEntityAffinityFavoursUPIFraud(t *testing.T) {
	c := New(DefaultParams())
	state := &State{}

	entities := map[extract.Category]bool{extract.CategoryUPI: true}
	res := c.Observe(state, "send the payment now", entities)
	if res.Type != TypeUPIFraud {
		t.Fatalf("Type = %q, want %q", res.Type, TypeUPIFraud)
	}
}

func TestConfidenceMonotonicAboveThreshold(t *testing.T) {
	c := New(DefaultParams())
	state := &State{}

	scammy := "URGENT your account blocked, share OTP and verify kyc update with bank immediately"
	first := c.Observe(state, scammy, nil)
	for i := 0; i < 3 && !first.Detected; i++ {
		first = c.Observe(state, scammy, nil)
	}
	if !first.Detected {
		t.Fatalf("expected detection after repeated signal turns, got %+v", first)
	}

	// A weak turn must not pull confidence back down.
	weak := c.Observe(state, "bank", nil)
	if weak.Confidence < first.Confidence {
		t.Fatalf("confidence dropped from %v to %v on weak turn", first.Confidence, weak.Confidence)
	}
}

func TestConfidenceDecaysAfterSilence(t *testing.T) {
	p := DefaultParams()
	c := New(p)
	state := &State{}

	scammy := "your account is blocked, share otp, kyc update required, unauthorized transaction detected"
	res := c.Observe(state, scammy, nil)
	for i := 0; i < 3 && !res.Detected; i++ {
		res = c.Observe(state, scammy, nil)
	}
	peak := state.Max

	var last Result
	for i := 0; i < p.DecayAfterTurns+2; i++ {
		last = c.Observe(state, "ok", nil)
	}
	if last.Confidence >= peak {
		t.Fatalf("confidence = %v after silence, want < peak %v", last.Confidence, peak)
	}

	want := peak
	// Decay only starts after the configured run of silent turns.
	for i := p.DecayAfterTurns; i < p.DecayAfterTurns+2; i++ {
		want *= 1 - p.DecayRate
	}
	if math.Abs(last.Confidence-want) > 1e-9 {
		t.Fatalf("decayed confidence = %v, want %v", last.Confidence, want)
	}
}

func TestPriorityOrderIsStable(t *testing.T) {
	want := []Type{
		TypeSextortion, TypeDigitalArrest, TypeCourierScam, TypeUtilityScam,
		TypeKYCScam, TypeJobScam, TypeLoanScam, TypeUPIFraud,
		TypeLotteryScam, TypeBankFraud, TypePhishing,
	}
	got := Priority()
	if len(got) != len(want) {
		t.Fatalf("Priority() has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Priority()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEveryTypeHasSignals(t *testing.T) {
	for _, typ := range Priority() {
		if len(signalTable[typ]) == 0 {
			t.Fatalf("no signals defined for %q", typ)
		}
	}
}

func TestDeterministicScoring(t *testing.T) {
	text := "Pay registration fee to upi id for your job offer"
	a := New(DefaultParams()).Observe(&State{}, text, nil)
	b := New(DefaultParams()).Observe(&State{}, text, nil)
	if a != b {
		t.Fatalf("same input classified differently: %+v vs %+v", a, b)
	}
}
