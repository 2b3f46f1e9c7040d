// Package report assembles the final intelligence report for a session and
// archives finalized reports.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/antoniostano/jaal/internal/classify"
	"github.com/antoniostano/jaal/internal/extract"
	"github.com/antoniostano/jaal/internal/session"
)

// Intelligence groups the deduplicated entity values by category, each in
// first-seen order. Field names are the compliance wire format.
type Intelligence struct {
	PhoneNumbers     []string `json:"phoneNumbers"`
	BankAccounts     []string `json:"bankAccounts"`
	UPIIDs           []string `json:"upiIds"`
	PhishingLinks    []string `json:"phishingLinks"`
	EmailAddresses   []string `json:"emailAddresses"`
	CreditCards      []string `json:"creditCards"`
	BitcoinAddresses []string `json:"bitcoinAddresses"`
	TelegramIDs      []string `json:"telegramIds"`
	TrackingNumbers  []string `json:"trackingNumbers"`
	IDs              []string `json:"ids"`
}

// FinalReport is the read-only snapshot handed to the caller and to the
// final-result callback.
type FinalReport struct {
	SessionID                 string       `json:"sessionId"`
	ScamDetected              bool         `json:"scamDetected"`
	TotalMessagesExchanged    int          `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int64        `json:"engagementDurationSeconds"`
	ExtractedIntelligence     Intelligence `json:"extractedIntelligence"`
	AgentNotes                string       `json:"agentNotes"`
	ScamType                  string       `json:"scamType"`
	ConfidenceLevel           float64      `json:"confidenceLevel"`
	GeneratedAt               time.Time    `json:"generatedAt"`
}

// Assemble builds the final report from a session snapshot. It never
// mutates the snapshot; finalize may run mid-conversation.
func Assemble(snap *session.Session, detectionThreshold float64) FinalReport {
	detected := snap.Classification.Confidence >= detectionThreshold

	scamType := string(classify.TypeUnclassified)
	if detected {
		scamType = string(snap.Classification.Type)
	}

	duration := int64(math.Floor(snap.LastActivityAt.Sub(snap.CreatedAt).Seconds()))
	if duration < 0 {
		duration = 0
	}

	rep := FinalReport{
		SessionID:                 snap.ID,
		ScamDetected:              detected,
		TotalMessagesExchanged:    len(snap.Turns),
		EngagementDurationSeconds: duration,
		ExtractedIntelligence:     collectIntelligence(snap),
		ScamType:                  scamType,
		ConfidenceLevel:           round2(snap.Classification.Confidence),
		GeneratedAt:               time.Now().UTC(),
	}
	rep.AgentNotes = agentNotes(snap, rep)
	return rep
}

func collectIntelligence(snap *session.Session) Intelligence {
	values := func(c extract.Category) []string {
		list := snap.Entities[c]
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, e.Value)
		}
		return out
	}
	return Intelligence{
		PhoneNumbers:     values(extract.CategoryPhone),
		BankAccounts:     values(extract.CategoryBankAccount),
		UPIIDs:           values(extract.CategoryUPI),
		PhishingLinks:    values(extract.CategoryLink),
		EmailAddresses:   values(extract.CategoryEmail),
		CreditCards:      values(extract.CategoryCreditCard),
		BitcoinAddresses: values(extract.CategoryBitcoin),
		TelegramIDs:      values(extract.CategoryTelegram),
		TrackingNumbers:  values(extract.CategoryTracking),
		IDs:              values(extract.CategoryGenericID),
	}
}

func agentNotes(snap *session.Session, rep FinalReport) string {
	var b strings.Builder
	if rep.ScamDetected {
		fmt.Fprintf(&b, "SCAM DETECTED: %s. ", rep.ScamType)
	} else {
		b.WriteString("No scam confirmed. ")
	}

	persona := string(snap.Engage.Persona)
	if persona == "" {
		persona = "none"
	}
	language := snap.Engage.Language
	if language == "" {
		language = "english"
	}
	fmt.Fprintf(&b, "Persona '%s' used in %s. ", persona, language)

	intel := rep.ExtractedIntelligence
	fmt.Fprintf(&b, "Extracted %d phone numbers, %d bank accounts, %d UPI IDs, %d phishing links. ",
		len(intel.PhoneNumbers), len(intel.BankAccounts), len(intel.UPIIDs), len(intel.PhishingLinks))
	fmt.Fprintf(&b, "Conversation had %d messages over %ds. ",
		rep.TotalMessagesExchanged, rep.EngagementDurationSeconds)

	if len(snap.Metrics.RedFlagLabels) > 0 {
		labels := snap.Metrics.RedFlagLabels
		if len(labels) > 3 {
			labels = labels[:3]
		}
		fmt.Fprintf(&b, "Identified red flags: %s. ", strings.Join(labels, ", "))
	}
	fmt.Fprintf(&b, "Asked %d investigative questions.", snap.Metrics.QuestionsAsked)
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
