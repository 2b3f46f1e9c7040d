package extract

import "regexp"

// Patterns are compiled once at init. The matcher table below fixes the
// claim priority order; reorder with care, the category-exclusivity tests
// pin it down.
var (
	reLink  = regexp.MustCompile(`(?i)(?:https?://|onion://|www\.)[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b[-a-zA-Z0-9()@:%_+.~#?&/=]*`)
	reEmail = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Known Indian PSP handles first; the broad form is a fallback used
	// only when no known-PSP handle matched anywhere in the text.
	reUPI      = regexp.MustCompile(`(?i)\b[a-zA-Z0-9._-]{2,256}@(?:oksbi|okaxis|okhdfcbank|okicici|okbob|okbiz|paytm|phonepe|ybl|paypal|upi|payzapp|bms|dmrc|ola|swiggy|zomato|amazon|google|sbi|axis|icici|hdfc|pnb|bob|kotak|idfc|yesbank|indus|union|canara|bandhan|federal|southindian|karur|cityunion|indianoverseas|saraswat|abhyuday|apnas|barodampay|cmsidfc|equitas|esaf|finobank|hsbc|jupiter|kbl|kmb|nsdl|purvanchal|rajasthan|tmb|uco|ujjivan|utbi)\b`)
	reUPIBroad = regexp.MustCompile(`\b[a-zA-Z0-9._-]{2,256}@[a-zA-Z]{2,64}\b`)

	rePhoneIN   = regexp.MustCompile(`(?:\+91[-\s]?)?\b[6-9]\d{9}\b`)
	rePhoneUS   = regexp.MustCompile(`\+1[-\s]?\(?\d{3}\)?[-\s]?\d{3}[-\s]?\d{4}`)
	rePhone800  = regexp.MustCompile(`\b1?[-\s]?800[-\s]?\d{3}[-\s]?\d{4}\b`)
	rePhoneIntl = regexp.MustCompile(`\+\d{1,3}[-\s]?\d{6,12}\b`)

	reCreditCard = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)

	// Aadhaar-shaped 12 digit groups are claimed but never reported; they
	// are personal ids of the victim, not scammer infrastructure, and they
	// otherwise surface as false bank accounts.
	reAadhaar = regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b`)

	reBankAccount = regexp.MustCompile(`\b\d{9,18}\b`)

	reTracking = regexp.MustCompile(`(?i)\b(?:DH|AMZ|UPS|FEDEX|1Z)[\s-]*\d{6,20}\b`)

	reBitcoinLegacy = regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`)
	reBitcoinBech32 = regexp.MustCompile(`\bbc1[a-zA-HJ-NP-Z0-9]{39,59}\b`)

	reTelegram = regexp.MustCompile(`@\w{3,32}\b`)

	reGenericID = regexp.MustCompile(`(?i)\b(?:TXN|ORD|ID|REF|CASE|EMP|CUS|EXT|SBI|AMZ|WIN|CB|LOAN|KYC|FRD|BILL)[-\s]?[A-Z0-9]{4,20}\b`)
	reOrderID   = regexp.MustCompile(`(?i)\b(?:ORDER|ORDERID|ORDER\s*NO|ORDER#|OID)[\s#-]*[A-Z0-9]{6,20}\b`)
	rePAN       = regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`)
	reIFSC      = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)
)

type matcher struct {
	category       Category // empty for suppressors
	find           func(string) [][]int
	normalize      func(string) (string, bool)
	digitGuard     bool // reject matches flanked by digits
	precededByWord bool // reject matches glued to a preceding word char
}

var matchers = []matcher{
	{category: CategoryLink, find: findAll(reLink), normalize: normalizeLink},
	{category: CategoryEmail, find: findAll(reEmail), normalize: normalizeLower},
	{category: CategoryUPI, find: findUPI, normalize: normalizeLower},
	{category: CategoryPhone, find: findAll(rePhoneIN, rePhoneUS, rePhone800, rePhoneIntl), normalize: normalizePhone, digitGuard: true},
	{category: CategoryCreditCard, find: findAll(reCreditCard), normalize: normalizeCreditCard, digitGuard: true},
	{category: "", find: findAll(reAadhaar), normalize: normalizeSuppressed, digitGuard: true},
	{category: CategoryTracking, find: findAll(reTracking), normalize: normalizeCode},
	{category: CategoryBankAccount, find: findAll(reBankAccount), normalize: normalizeBankAccount, digitGuard: true},
	{category: CategoryBitcoin, find: findAll(reBitcoinLegacy, reBitcoinBech32), normalize: normalizeVerbatim},
	{category: CategoryTelegram, find: findAll(reTelegram), normalize: normalizeTelegram, precededByWord: true},
	{category: CategoryGenericID, find: findAll(reGenericID, reOrderID, rePAN, reIFSC), normalize: normalizeGenericID},
}

func findAll(res ...*regexp.Regexp) func(string) [][]int {
	return func(text string) [][]int {
		var locs [][]int
		for _, re := range res {
			locs = append(locs, re.FindAllStringIndex(text, -1)...)
		}
		return locs
	}
}

func findUPI(text string) [][]int {
	if locs := reUPI.FindAllStringIndex(text, -1); len(locs) > 0 {
		return locs
	}
	return reUPIBroad.FindAllStringIndex(text, -1)
}
