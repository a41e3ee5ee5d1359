// Package person defines the person aggregate: a legal entity or individual
// entrepreneur from the entity registry, identified by its tax number.
package person

import "time"

// Kind classifies a registry person.
type Kind int

const (
	KindLegalEntity            Kind = 1
	KindIndividualEntrepreneur Kind = 2
)

func (k Kind) Valid() bool {
	return k == KindLegalEntity || k == KindIndividualEntrepreneur
}

func (k Kind) String() string {
	switch k {
	case KindLegalEntity:
		return "legal_entity"
	case KindIndividualEntrepreneur:
		return "individual_entrepreneur"
	default:
		return "unknown"
	}
}

// Person is a normalized entity-registry record. TaxNumber is the natural
// key and is always in canonical form: exactly 10 digits (organizations) or
// 12 digits (individual entrepreneurs).
type Person struct {
	Kind         Kind
	TaxNumber    string
	FullName     string
	ShortName    string
	LegalAddress string
	FactAddress  string
	RegDate      *time.Time
	Active       bool
	Category     string
}

// PatentRef identifies one patent owned by a person.
type PatentRef struct {
	Kind      int   `json:"kind"`
	RegNumber int64 `json:"reg_number"`
}

// WithPatents pairs a person with the keys of the patents it owns.
type WithPatents struct {
	Person
	Patents     []PatentRef
	PatentCount int
}
