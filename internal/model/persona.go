package model

// Persona is a coarse advertiser-relevant category inferred from signals.
// The set is closed: configuration that names any other persona is rejected
// at start-up.
type Persona string

// Known personas.
const (
	PersonaPrivacyConscious Persona = "privacy-conscious"
	PersonaTechProfessional Persona = "tech-professional"
	PersonaGamer            Persona = "gamer"
	PersonaAffluentShopper  Persona = "affluent-shopper"
	PersonaUSConsumer       Persona = "us-consumer"
	PersonaGeneral          Persona = "general"
)

// Personas lists every known persona.
var Personas = []Persona{
	PersonaPrivacyConscious,
	PersonaTechProfessional,
	PersonaGamer,
	PersonaAffluentShopper,
	PersonaUSConsumer,
	PersonaGeneral,
}

// Valid reports whether p is a known persona.
func (p Persona) Valid() bool {
	for _, known := range Personas {
		if known == p {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (p Persona) String() string {
	return string(p)
}
