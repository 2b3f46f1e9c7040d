// Package engage decides who the honeypot pretends to be and what it says:
// persona selection, the elicitation strategy state machine, and templated
// reply rendering.
package engage

import "github.com/antoniostano/jaal/internal/classify"

// Persona is the honeypot's assumed character voice.
type Persona string

const (
	PersonaGrandma Persona = "grandma"
	PersonaStudent Persona = "student"
	PersonaSkeptic Persona = "skeptic"
	PersonaParent  Persona = "parent"
)

// Personas returns the full enumeration.
func Personas() []Persona {
	return []Persona{PersonaGrandma, PersonaStudent, PersonaSkeptic, PersonaParent}
}

// personaByType is the fixed scam-type → persona routing. Grandma soaks up
// banking scripts, the broke student strings along anything promising money,
// the skeptic stonewalls authority plays, and the distracted parent takes
// the rest.
var personaByType = map[classify.Type]Persona{
	classify.TypeBankFraud:     PersonaGrandma,
	classify.TypeKYCScam:       PersonaGrandma,
	classify.TypeUPIFraud:      PersonaGrandma,
	classify.TypeJobScam:       PersonaStudent,
	classify.TypeLoanScam:      PersonaStudent,
	classify.TypePhishing:      PersonaSkeptic,
	classify.TypeLotteryScam:   PersonaSkeptic,
	classify.TypeDigitalArrest: PersonaSkeptic,
	classify.TypeSextortion:    PersonaSkeptic,
	classify.TypeUtilityScam:   PersonaParent,
	classify.TypeCourierScam:   PersonaParent,
}

// PersonaFor maps a scam type to its default persona. Unclassified or
// unknown types fall back to the parent, the most neutral voice.
func PersonaFor(t classify.Type) Persona {
	if p, ok := personaByType[t]; ok {
		return p
	}
	return PersonaParent
}
