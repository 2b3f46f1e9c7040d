package engage

import (
	"strings"

	"github.com/antoniostano/jaal/internal/extract"
	"github.com/antoniostano/jaal/internal/policy"
)

// askOrder ranks the identifiers worth fishing for, highest value first.
// The {ask} slot resolves to the first one the session has not seen yet.
var askOrder = []struct {
	category extract.Category
	phrase   string
}{
	{extract.CategoryBankAccount, "bank account number"},
	{extract.CategoryUPI, "UPI ID"},
	{extract.CategoryLink, "payment link"},
	{extract.CategoryPhone, "callback number"},
}

// NextAsk returns the phrase for the most valuable identifier still missing
// from the session, or a generic fallback once everything is collected.
func NextAsk(have map[extract.Category]bool) string {
	for _, a := range askOrder {
		if !have[a.category] {
			return a.phrase
		}
	}
	return "payment details"
}

// Context carries the turn-level inputs for one rendered reply.
type Context struct {
	Language string // "english" or "hinglish"
	Ask      string // identifier phrase for the {ask} slot
	Entity   string // most recent extracted value, for {entity}
}

// Generator renders persona replies from the template pack. It is stateless
// across sessions; the rotation cursor lives in the session's engage.State.
type Generator struct {
	pack *Pack
}

func NewGenerator(pack *Pack) *Generator {
	return &Generator{pack: pack}
}

// Reply renders the next reply for (persona, move) and advances the
// rotation cursor so consecutive renders of the same pair never repeat
// while the pool holds more than one template. Templates that would blow
// the honeypot's cover are skipped in favor of the next in rotation.
func (g *Generator) Reply(st *State, move Move, ctx Context) string {
	persona := st.Persona
	if persona == "" {
		persona = PersonaParent
	}
	lang := ctx.Language
	if lang == "" {
		lang = st.Language
	}
	if lang == "" {
		lang = "english"
	}

	pool := g.pack.Pool(lang, persona, move)
	key := lang + "|" + string(persona) + "|" + string(move)
	if st.Cursors == nil {
		st.Cursors = make(map[string]int)
	}

	cursor := st.Cursors[key]
	var text string
	for i := 0; i < len(pool); i++ {
		candidate := fill(pool[(cursor+i)%len(pool)], ctx)
		if policy.LeaksCover(candidate) {
			continue
		}
		text = candidate
		st.Cursors[key] = (cursor + i + 1) % len(pool)
		break
	}
	if text == "" {
		// Every template tripped the guard; fall back to a neutral line
		// rather than going silent.
		text = "Sorry, I did not understand. Can you send that again?"
		st.Cursors[key] = (cursor + 1) % len(pool)
	}
	st.LastMove = move
	if move.Eliciting() {
		st.ElicitTurns++
	}
	return text
}

func fill(template string, ctx Context) string {
	ask := ctx.Ask
	if ask == "" {
		ask = "details"
	}
	entity := ctx.Entity
	if entity == "" {
		entity = "the number you sent"
	}
	out := strings.ReplaceAll(template, "{ask}", ask)
	return strings.ReplaceAll(out, "{entity}", entity)
}
