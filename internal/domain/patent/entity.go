// Package patent defines the patent aggregate: a registry record identified
// by the natural key (kind, registration number).
package patent

import "time"

// Kind classifies a patent record. A source export file carries exactly one
// kind, detected from which name column is present.
type Kind int

const (
	KindInvention        Kind = 1
	KindUtilityModel     Kind = 2
	KindIndustrialDesign Kind = 3
)

// Valid reports whether k is one of the three registry kinds.
func (k Kind) Valid() bool {
	return k >= KindInvention && k <= KindIndustrialDesign
}

func (k Kind) String() string {
	switch k {
	case KindInvention:
		return "invention"
	case KindUtilityModel:
		return "utility_model"
	case KindIndustrialDesign:
		return "industrial_design"
	default:
		return "unknown"
	}
}

// Key is the natural key of a patent record. The registry does not assign
// surrogate ids; uniqueness of (kind, reg_number) is enforced by the store
// and is the duplicate-detection mechanism during ingestion.
type Key struct {
	Kind      Kind
	RegNumber int64
}

// Patent is a normalized patent registry record.
//
// CountryCode, Region, City and AuthorCount are derived during ingestion from
// the free-text address and author fields; they are best-effort enrichment
// and may be empty/zero on a valid record.
type Patent struct {
	Kind        Kind
	RegNumber   int64
	RegDate     *time.Time
	ApplDate    *time.Time
	AuthorRaw   string
	OwnerRaw    string
	Address     string
	Name        string
	Actual      bool
	Category    string
	Subcategory string
	CountryCode string
	Region      string
	City        string
	AuthorCount int
}

// NaturalKey returns the record's natural key.
func (p *Patent) NaturalKey() Key {
	return Key{Kind: p.Kind, RegNumber: p.RegNumber}
}

// DomesticCountryCode is the country code assigned when the address carries
// no foreign marker, or carries the domestic marker at all.
const DomesticCountryCode = "RU"

// Author-count distribution buckets, as reported by the statistics engine.
const (
	BucketZero     = "0"
	BucketOne      = "1"
	BucketTwoFive  = "2–5"
	BucketOverFive = "5+"
)

// AuthorBucket classifies an author count into its distribution bucket.
// Cut points: 0 → "0", 1 → "1", 2..5 → "2–5", >5 → "5+".
func AuthorBucket(count int) string {
	switch {
	case count <= 0:
		return BucketZero
	case count == 1:
		return BucketOne
	case count <= 5:
		return BucketTwoFive
	default:
		return BucketOverFive
	}
}

// Holder is a person that owns a patent, as embedded in listing responses.
type Holder struct {
	TaxNumber string `json:"tax_number"`
	FullName  string `json:"full_name"`
}

// WithHolders pairs a patent with its resolved owners.
type WithHolders struct {
	Patent
	Holders []Holder
}
