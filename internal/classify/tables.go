package classify

import (
	"strings"

	"github.com/antoniostano/jaal/internal/extract"
)

// signal is one weighted keyword or phrase. Multi-word phrases carry more
// weight than single words because they are far less likely to appear in
// innocent chatter.
type signal struct {
	phrase string
	weight float64
}

// signalTable maps every scam type to its keyword signals. Phrases are
// matched case-insensitively as substrings of the lower-cased turn text.
var signalTable = map[Type][]signal{
	TypeSextortion: {
		{"blackmail", 3.0}, {"private videos", 3.0}, {"extortion", 3.0},
		{"your contacts", 2.0}, {"webcam", 2.0}, {"intimate", 2.0},
		{"bitcoin", 1.5}, {"crypto", 1.0},
	},
	TypeDigitalArrest: {
		{"digital arrest", 3.5}, {"arrest warrant", 3.0}, {"narcotics", 2.5},
		{"money laundering", 2.5}, {"cbi", 2.0}, {"arrest", 2.0},
		{"police", 1.5}, {"court", 1.5}, {"customs officer", 1.5},
		{"warrant", 1.5}, {"trafficking", 1.5}, {"cyber cell", 1.5},
	},
	TypeCourierScam: {
		{"held at customs", 3.0}, {"customs duty", 2.5}, {"parcel", 2.0},
		{"courier", 2.0}, {"fedex", 2.0}, {"dhl", 2.0}, {"shipment", 1.5},
		{"tracking number", 1.5}, {"customs", 1.0},
	},
	TypeUtilityScam: {
		{"electricity bill", 3.0}, {"power cut", 2.5}, {"disconnect", 2.0},
		{"meter", 2.0}, {"unpaid bill", 2.0}, {"electricity", 1.5},
		{"gas connection", 1.5},
	},
	TypeKYCScam: {
		{"kyc update", 3.0}, {"update kyc", 3.0}, {"kyc", 2.5},
		{"pan card", 2.0}, {"aadhaar", 1.5}, {"aadhar", 1.5},
		{"re-verify", 1.5},
	},
	TypeJobScam: {
		{"work from home", 3.0}, {"urgent hiring", 3.0}, {"job offer", 2.5},
		{"registration fee", 2.5}, {"part time job", 2.5}, {"salary", 1.5},
		{"hiring", 1.5}, {"employment", 1.5}, {"earn money", 1.5},
		{"job", 1.0}, {"task", 1.0},
	},
	TypeLoanScam: {
		{"pre-approved", 3.0}, {"instant loan", 3.0}, {"loan approved", 3.0},
		{"processing fee", 2.0}, {"zero interest", 2.0}, {"emi", 1.5},
		{"loan", 1.5}, {"credit score", 1.0},
	},
	TypeUPIFraud: {
		{"upi id", 2.5}, {"cashback", 2.5}, {"upi pin", 2.5},
		{"google pay", 2.0}, {"phonepe", 2.0}, {"paytm", 2.0},
		{"collect request", 2.0}, {"upi", 1.5},
	},
	TypeLotteryScam: {
		{"lucky draw", 3.0}, {"congratulations you won", 3.0},
		{"lottery", 2.5}, {"prize money", 2.5}, {"winner", 2.0},
		{"jackpot", 2.0}, {"prize", 1.5}, {"won", 1.0},
	},
	TypeBankFraud: {
		{"account blocked", 3.0}, {"account compromised", 3.0},
		{"share otp", 3.0}, {"unauthorized transaction", 2.5},
		{"net banking", 2.0}, {"debit card", 1.5}, {"otp", 1.5},
		{"cvv", 1.5}, {"blocked", 1.5}, {"sbi", 1.0}, {"bank", 1.0},
		{"account", 0.5}, {"verify", 0.5},
	},
	TypePhishing: {
		{"click here", 2.5}, {"claim prize", 2.0}, {"verify at", 2.0},
		{"login here", 2.0}, {"update your details", 2.0},
		{"order confirmed", 1.5}, {"amazon", 1.0}, {"flipkart", 1.0},
		{"link", 0.5},
	},
}

// affinityTable awards a bonus when an entity category has already been
// extracted in the session. A UPI id speaks louder than any keyword.
var affinityTable = map[Type]map[extract.Category]float64{
	TypeSextortion:    {extract.CategoryBitcoin: 3.0, extract.CategoryTelegram: 1.0},
	TypeCourierScam:   {extract.CategoryTracking: 3.0},
	TypeUPIFraud:      {extract.CategoryUPI: 3.0},
	TypeBankFraud:     {extract.CategoryBankAccount: 2.5, extract.CategoryCreditCard: 2.0},
	TypeKYCScam:       {extract.CategoryCreditCard: 1.0},
	TypePhishing:      {extract.CategoryLink: 2.0, extract.CategoryEmail: 0.5},
	TypeJobScam:       {extract.CategoryUPI: 0.5},
	TypeLotteryScam:   {extract.CategoryLink: 0.5},
	TypeDigitalArrest: {extract.CategoryGenericID: 0.5},
}

// countHits returns the weighted hit total and the number of matched
// signals for one type over the lower-cased text.
func countHits(lower string, signals []signal) (float64, int) {
	var total float64
	var matched int
	for _, sig := range signals {
		if strings.Contains(lower, sig.phrase) {
			total += sig.weight
			matched++
		}
	}
	return total, matched
}
