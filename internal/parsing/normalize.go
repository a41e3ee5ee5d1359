// Package parsing converts raw registry-export rows into normalized domain
// records. It contains the pure field normalizers, the per-kind row decoders,
// and the chunked source reader.
package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/patreg-insight/internal/domain/patent"
	"github.com/turtacn/patreg-insight/internal/refdata"
)

// Tax numbers come in two canonical widths: 10 digits for organizations and
// 12 for individual entrepreneurs. Spreadsheet tools drop the legally
// significant leading zero, producing 9- and 11-digit values; padding is
// always on the most-significant side.
const (
	orgTaxNumberLen    = 10
	personTaxNumberLen = 12
)

// PadTaxNumber restores the dropped leading zero of a 9- or 11-digit tax
// number. Any other input is returned unchanged; use FormatTaxNumber when
// the length must also be validated.
func PadTaxNumber(raw string) string {
	if len(raw) == orgTaxNumberLen-1 || len(raw) == personTaxNumberLen-1 {
		return "0" + raw
	}
	return raw
}

// FormatTaxNumber canonicalizes a raw tax number. Inputs of length 9 and 11
// are left-padded to 10 and 12 respectively; 10- and 12-digit inputs pass
// through unchanged; anything shorter than 9 or longer than 12 is rejected.
// The function is idempotent on canonical input.
func FormatTaxNumber(raw string) (string, bool) {
	if len(raw) < orgTaxNumberLen-1 || len(raw) > personTaxNumberLen {
		return "", false
	}
	return PadTaxNumber(raw), true
}

var digitRunRe = regexp.MustCompile(`\d+`)

// RegNumberToInt extracts a registration number from a raw field. An
// all-digit field parses directly; otherwise the first maximal digit run
// anywhere in the string is used. A field with no digits yields ok == false.
func RegNumberToInt(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	candidate := raw
	if !isDigits(raw) {
		candidate = digitRunRe.FindString(raw)
		if candidate == "" {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(candidate, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// compactDateLayout is the patent-registry export date format.
const compactDateLayout = "20060102"

// isoDateLayout is the entity-registry export date format.
const isoDateLayout = "2006-01-02"

// ParseCompactDate parses a YYYYMMDD date. Dates are best-effort enrichment:
// a malformed value yields nil, never an error.
func ParseCompactDate(raw string) *time.Time {
	return parseDate(raw, compactDateLayout)
}

// ParseISODate parses a YYYY-MM-DD date, tolerating a trailing time part.
func ParseISODate(raw string) *time.Time {
	if len(raw) > len(isoDateLayout) {
		raw = raw[:len(isoDateLayout)]
	}
	return parseDate(raw, isoDateLayout)
}

func parseDate(raw, layout string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return nil
	}
	return &t
}

var countryMarkerRe = regexp.MustCompile(`\(([A-Za-z]{2})\)`)

// InferCountryCode derives a country code from free-text address content by
// scanning for two-letter parenthesized markers like "(DE)".
//
// Rules, in order: no markers at all, or the domestic marker present
// anywhere, classifies as domestic. Exactly one distinct foreign marker wins
// directly. Among several distinct foreign markers the most frequent wins;
// ties break by first occurrence. The domestic short-circuit is deliberate
// policy: a single domestic marker outweighs any number of foreign ones.
func InferCountryCode(address string) string {
	matches := countryMarkerRe.FindAllStringSubmatch(address, -1)
	if len(matches) == 0 {
		return patent.DomesticCountryCode
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, m := range matches {
		code := m[1]
		if _, seen := counts[code]; !seen {
			firstSeen[code] = i
		}
		counts[code]++
	}

	if _, domestic := counts[patent.DomesticCountryCode]; domestic {
		return patent.DomesticCountryCode
	}
	best := ""
	for code, n := range counts {
		if best == "" {
			best = code
			continue
		}
		if n > counts[best] || (n == counts[best] && firstSeen[code] < firstSeen[best]) {
			best = code
		}
	}
	return best
}

// FindPostalCode returns the first run of exactly six digits in the address.
// Longer or shorter digit runs are not postal codes and are skipped.
func FindPostalCode(address string) (string, bool) {
	for _, run := range digitRunRe.FindAllString(address, -1) {
		if len(run) == 6 {
			return run, true
		}
	}
	return "", false
}

// EnrichFromAddress resolves the address's postal code against the lookup
// table. Failures are non-fatal: a missing or unknown code leaves region and
// city empty.
func EnrichFromAddress(address string, postal *refdata.PostalCodes) (region, city string) {
	code, ok := FindPostalCode(address)
	if !ok {
		return "", ""
	}
	region, city, _ = postal.Lookup(code)
	return region, city
}

// authorSeparator is the record-internal line separator used by the patent
// registry inside the authors field.
const authorSeparator = "\r\n"

// AuthorCount counts authors in the raw field. An empty field is zero
// authors; an empty split must not be counted as one.
func AuthorCount(raw string) int {
	if raw == "" {
		return 0
	}
	return len(strings.Split(raw, authorSeparator))
}

// Activity-code categories, in match priority order. Codes are the national
// activity classifier values curated for the analytics use case; the first
// list containing the code wins.
var activityCategories = []struct {
	Category string
	Codes    []string
}{
	{CategoryITCompany, []string{
		"62.01", "62.02", "62.02.1", "62.02.4", "62.03.13", "62.09", "63.11.1",
	}},
	{CategoryResearch, []string{
		"72", "72.1", "72.11", "72.19", "72.19.1", "72.19.11", "72.19.12",
		"72.19.2", "72.19.3", "72.19.4", "72.19.9", "72.2", "72.20", "72.20.1",
		"72.20.11", "72.20.19", "72.20.2",
	}},
	{CategoryCollege, []string{"85.21"}},
	{CategoryUniversity, []string{"85.22", "85.22.1", "85.22.2", "85.22.3", "85.23"}},
}

// Person category labels.
const (
	CategoryITCompany  = "High-tech IT companies"
	CategoryResearch   = "Research organizations"
	CategoryCollege    = "Colleges"
	CategoryUniversity = "Universities"
	CategoryOther      = "Other organizations"
)

// CategorizeActivityCode maps an activity classifier code to its analytics
// category. Unknown codes fall through to CategoryOther.
func CategorizeActivityCode(code string) string {
	code = strings.TrimSpace(code)
	for _, group := range activityCategories {
		for _, c := range group.Codes {
			if code == c {
				return group.Category
			}
		}
	}
	return CategoryOther
}

// SplitMPK derives the category and subcategory code lists from a raw MPK
// classification field: 3-character prefixes for the category, 4-character
// prefixes for the subcategory, of each ":"-separated code.
func SplitMPK(classCode string) (category, subcategory string) {
	if classCode == "" {
		return "", ""
	}
	parts := strings.Split(classCode, ":")
	cats := make([]string, 0, len(parts))
	subs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		cats = append(cats, prefix(p, 3))
		subs = append(subs, prefix(p, 4))
	}
	return strings.Join(cats, ", "), strings.Join(subs, ", ")
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
