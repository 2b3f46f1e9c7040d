package engage

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates/replies.yaml
var embeddedPack []byte

// Pack is the immutable reply template pool, keyed language → persona →
// move. Loaded once at startup; never mutated afterwards.
type Pack struct {
	pools map[string]map[Persona]map[Move][]string
}

// LoadPack parses the embedded template pack, or the YAML file at path when
// one is configured.
func LoadPack(path string) (*Pack, error) {
	data := embeddedPack
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template pack: %w", err)
		}
		data = b
	}

	var raw map[string]map[string]map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse template pack: %w", err)
	}

	p := &Pack{pools: make(map[string]map[Persona]map[Move][]string, len(raw))}
	for lang, personas := range raw {
		p.pools[lang] = make(map[Persona]map[Move][]string, len(personas))
		for persona, moves := range personas {
			p.pools[lang][Persona(persona)] = make(map[Move][]string, len(moves))
			for move, pool := range moves {
				p.pools[lang][Persona(persona)][Move(move)] = pool
			}
		}
	}

	// English is the fallback language, so it must cover every
	// persona/move pair outright.
	for _, persona := range Personas() {
		for _, move := range Moves() {
			if len(p.pools["english"][persona][move]) == 0 {
				return nil, fmt.Errorf("template pack missing english pool for %s/%s", persona, move)
			}
		}
	}
	return p, nil
}

// Pool returns the template pool for the triple, falling back to English
// when the requested language has no entry.
func (p *Pack) Pool(language string, persona Persona, move Move) []string {
	if pool := p.pools[language][persona][move]; len(pool) > 0 {
		return pool
	}
	return p.pools["english"][persona][move]
}
