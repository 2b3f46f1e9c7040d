package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/antoniostano/jaal/internal/classify"
	"github.com/antoniostano/jaal/internal/engage"
	"github.com/antoniostano/jaal/internal/extract"
	"github.com/antoniostano/jaal/internal/intelwire"
	"github.com/antoniostano/jaal/internal/report"
	"github.com/antoniostano/jaal/internal/session"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]*session.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]*session.Session)}
}

func (f *fakeStore) Get(_ context.Context, id string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s.Clone(), nil
}

func (f *fakeStore) Put(_ context.Context, s *session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[s.ID] = s.Clone()
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

type recordingWire struct {
	mu       sync.Mutex
	entities []extract.Entity
	scams    []string
	reports  []report.FinalReport
}

func (w *recordingWire) EntityFound(_ string, ent extract.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = append(w.entities, ent)
}

func (w *recordingWire) ScamDetected(_ string, scamType string, _ float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scams = append(w.scams, scamType)
}

func (w *recordingWire) ReportFinalized(rep report.FinalReport) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, rep)
}

func (w *recordingWire) Close() {}

var _ intelwire.Publisher = (*recordingWire)(nil)

func newTestEngine(t *testing.T) (*Engine, *recordingWire, report.Archive) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(noopWriter{}, nil))
	mgr := session.NewManager(newFakeStore(), time.Hour, logger)
	pack, err := engage.LoadPack("")
	if err != nil {
		t.Fatalf("load template pack: %v", err)
	}
	wire := &recordingWire{}
	archive := report.NewMemoryArchive()
	eng := New(
		mgr,
		classify.New(classify.DefaultParams()),
		engage.NewGenerator(pack),
		archive,
		nil,
		wire,
		nil,
		logger,
	)
	return eng, wire, archive
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func send(t *testing.T, eng *Engine, sessionID, text string) Analysis {
	t.Helper()
	out, err := eng.AnalyzeTurn(context.Background(), sessionID, TurnInput{
		Sender:    "scammer",
		Text:      text,
		Timestamp: time.Now().UTC(),
	}, nil, Metadata{Channel: "sms", Language: "english"})
	if err != nil {
		t.Fatalf("AnalyzeTurn: %v", err)
	}
	return out
}

func TestBlockedAccountMessageYieldsPhoneAndLink(t *testing.T) {
	eng, wire, _ := newTestEngine(t)

	out := send(t, eng, "s-blocked", "Your account is blocked, send OTP to 9876543210 and verify at http://fake-bank.com")

	cats := make(map[extract.Category][]string)
	for _, ent := range out.NewEntities {
		cats[ent.Category] = append(cats[ent.Category], ent.Value)
	}
	if got := cats[extract.CategoryPhone]; len(got) != 1 || got[0] != "9876543210" {
		t.Fatalf("phone entities = %v, want [9876543210]", got)
	}
	if got := cats[extract.CategoryLink]; len(got) != 1 || got[0] != "http://fake-bank.com" {
		t.Fatalf("link entities = %v, want [http://fake-bank.com]", got)
	}
	if out.Classification.Type == classify.TypeUnclassified {
		t.Fatalf("classification = Unclassified, want a scam-adjacent type")
	}
	if out.Classification.Confidence <= 0 {
		t.Fatalf("confidence = %v, want > 0", out.Classification.Confidence)
	}
	if out.Reply == "" {
		t.Fatalf("reply is empty")
	}

	wire.mu.Lock()
	defer wire.mu.Unlock()
	if len(wire.entities) != 2 {
		t.Fatalf("wire saw %d entities, want 2", len(wire.entities))
	}
}

func TestJobFeeMessageExtractsUPIAndAssignsPersona(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	out := send(t, eng, "s-job", "Pay registration fee to upi id scammer@oksbi for your job offer")

	var upi []string
	for _, ent := range out.NewEntities {
		if ent.Category == extract.CategoryUPI {
			upi = append(upi, ent.Value)
		}
	}
	if len(upi) != 1 || upi[0] != "scammer@oksbi" {
		t.Fatalf("UPI entities = %v, want [scammer@oksbi]", upi)
	}
	if out.Classification.Type != classify.TypeJobScam && out.Classification.Type != classify.TypeUPIFraud {
		t.Fatalf("type = %v, want JobScam or UPIFraud", out.Classification.Type)
	}

	// Drive confidence past the persona bar and check the mapping holds.
	send(t, eng, "s-job", "Registration fee is mandatory for this job offer, pay now to confirm placement")
	snap, err := eng.Snapshot(context.Background(), "s-job")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Engage.Persona == "" {
		t.Fatalf("persona never assigned, confidence %v", snap.Classification.Confidence)
	}
	if snap.Classification.Type == classify.TypeJobScam && snap.Engage.Persona != engage.PersonaStudent {
		t.Fatalf("persona = %v for JobScam, want student", snap.Engage.Persona)
	}
}

func TestRepeatedEntityReportedOnce(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	send(t, eng, "s-dup", "Call me at 9876543210 to unblock your account")
	send(t, eng, "s-dup", "Why no call? 9876543210 is the number, your account will be suspended")

	rep, err := eng.FinalizeSession(context.Background(), "s-dup")
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if got := rep.ExtractedIntelligence.PhoneNumbers; len(got) != 1 || got[0] != "9876543210" {
		t.Fatalf("phoneNumbers = %v, want exactly [9876543210]", got)
	}
}

func TestBenignSessionFinalizesUnclassified(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	send(t, eng, "s-benign", "hello, how are you today")
	send(t, eng, "s-benign", "the weather is nice here")

	rep, err := eng.FinalizeSession(context.Background(), "s-benign")
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if rep.ScamDetected {
		t.Fatalf("scamDetected = true for benign session")
	}
	if rep.ScamType != "Unclassified" {
		t.Fatalf("scamType = %q, want Unclassified", rep.ScamType)
	}
	intel := rep.ExtractedIntelligence
	for name, list := range map[string][]string{
		"phoneNumbers":     intel.PhoneNumbers,
		"bankAccounts":     intel.BankAccounts,
		"upiIds":           intel.UPIIDs,
		"phishingLinks":    intel.PhishingLinks,
		"emailAddresses":   intel.EmailAddresses,
		"creditCards":      intel.CreditCards,
		"bitcoinAddresses": intel.BitcoinAddresses,
		"telegramIds":      intel.TelegramIDs,
		"trackingNumbers":  intel.TrackingNumbers,
		"ids":              intel.IDs,
	} {
		if len(list) != 0 {
			t.Fatalf("%s = %v, want empty", name, list)
		}
	}
}

func TestFinalizeUnknownSessionReturnsNotFound(t *testing.T) {
	eng, wire, _ := newTestEngine(t)

	_, err := eng.FinalizeSession(context.Background(), "never-seen")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("err = %v, want session.ErrNotFound", err)
	}

	wire.mu.Lock()
	defer wire.mu.Unlock()
	if len(wire.reports) != 0 {
		t.Fatalf("report published for unknown session")
	}
}

func TestFinalizeArchivesAndPublishesReport(t *testing.T) {
	eng, wire, archive := newTestEngine(t)

	send(t, eng, "s-arch", "Your KYC is expired, pay verification fee to scammer@oksbi or account blocked")
	send(t, eng, "s-arch", "Last warning, verify KYC now or your account will be suspended today")

	rep, err := eng.FinalizeSession(context.Background(), "s-arch")
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	stored, err := archive.Get(context.Background(), "s-arch")
	if err != nil {
		t.Fatalf("archive.Get: %v", err)
	}
	if stored.ScamType != rep.ScamType {
		t.Fatalf("archived scamType = %q, returned %q", stored.ScamType, rep.ScamType)
	}

	wire.mu.Lock()
	defer wire.mu.Unlock()
	if len(wire.reports) != 1 {
		t.Fatalf("wire saw %d reports, want 1", len(wire.reports))
	}
}

func TestHistoryReplaySeedsUnknownSession(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	history := []TurnInput{
		{Sender: "scammer", Text: "Your parcel is held at customs, pay duty at http://customs-pay.in", Timestamp: time.Now().Add(-2 * time.Minute)},
		{Sender: "user", Text: "which parcel?", Timestamp: time.Now().Add(-time.Minute)},
	}
	out, err := eng.AnalyzeTurn(context.Background(), "s-hist", TurnInput{
		Sender:    "scammer",
		Text:      "Pay the customs duty now or the parcel is returned",
		Timestamp: time.Now(),
	}, history, Metadata{Channel: "whatsapp"})
	if err != nil {
		t.Fatalf("AnalyzeTurn: %v", err)
	}

	snap, err := eng.Snapshot(context.Background(), "s-hist")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := len(snap.Turns); got != 4 {
		t.Fatalf("turns = %d, want 4 (2 history + inbound + reply)", got)
	}
	if !snap.HasCategory(extract.CategoryLink) {
		t.Fatalf("link from history not merged into session")
	}
	if out.Reply == "" {
		t.Fatalf("reply is empty")
	}
}

func TestRedFlagRecordedOnDetection(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	send(t, eng, "s-flag", "This is the cyber police, a digital arrest warrant is issued, pay fine immediately")
	send(t, eng, "s-flag", "You are under digital arrest, do not disconnect, police will come")

	snap, err := eng.Snapshot(context.Background(), "s-flag")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Classification.Detected {
		t.Fatalf("session not detected, confidence %v", snap.Classification.Confidence)
	}
	if snap.Metrics.RedFlags == 0 {
		t.Fatalf("no red flags recorded on detection")
	}
	found := false
	for _, l := range snap.Metrics.RedFlagLabels {
		if l == "Scam Pattern" {
			found = true
		}
	}
	if !found {
		t.Fatalf("red flag labels = %v, want to include Scam Pattern", snap.Metrics.RedFlagLabels)
	}
}

func TestPersonaSticksAcrossTurns(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	send(t, eng, "s-stick", "Congratulations you won the lucky draw lottery prize of 25 lakh")
	send(t, eng, "s-stick", "Claim your lottery prize now, pay the processing fee")
	first, err := eng.Snapshot(context.Background(), "s-stick")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if first.Engage.Persona == "" {
		t.Fatalf("no persona assigned at confidence %.2f for %v", first.Classification.Confidence, first.Classification.Type)
	}

	send(t, eng, "s-stick", "ok just pay fast")
	second, err := eng.Snapshot(context.Background(), "s-stick")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if second.Engage.Persona != first.Engage.Persona {
		t.Fatalf("persona changed %v -> %v without a category change", first.Engage.Persona, second.Engage.Persona)
	}
}

func TestHinglishMessageSwitchesLanguage(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	send(t, eng, "s-lang", "Your account is blocked, verify now")
	send(t, eng, "s-lang", "bhaiya paise bhejo abhi, warna account band ho jayega")

	snap, err := eng.Snapshot(context.Background(), "s-lang")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Engage.Language != "hinglish" {
		t.Fatalf("language = %q, want hinglish", snap.Engage.Language)
	}
}

func TestEarlyTurnsStall(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	out := send(t, eng, "s-stall", "Your account is blocked, verify immediately")
	if out.Move != engage.MoveStall {
		t.Fatalf("first move = %v, want stall", out.Move)
	}
	if strings.TrimSpace(out.Reply) == "" {
		t.Fatalf("stall reply is empty")
	}
}
