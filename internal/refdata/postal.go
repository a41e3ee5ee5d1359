// Package refdata provides static reference lookup tables loaded once at
// startup and immutable for the process lifetime.
package refdata

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/turtacn/patreg-insight/pkg/errors"
)

// RegionCity is the value side of the postal-code lookup.
type RegionCity struct {
	Region string
	City   string
}

// PostalCodes maps a 6-digit postal code to its region and city. The table
// is built once by LoadPostalCodes and never mutated afterwards, so reads
// require no locking.
type PostalCodes struct {
	byCode map[string]RegionCity
}

// Lookup returns the region and city for a postal code. ok is false when the
// code is not present in the table.
func (p *PostalCodes) Lookup(code string) (region, city string, ok bool) {
	if p == nil {
		return "", "", false
	}
	rc, ok := p.byCode[code]
	return rc.Region, rc.City, ok
}

// Len returns the number of loaded codes.
func (p *PostalCodes) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byCode)
}

// LoadPostalCodes reads the postal-code reference CSV at path. The file must
// carry an INDEX, REGION, CITY header; unknown columns are ignored. Rows with
// an empty index are skipped.
func LoadPostalCodes(path string) (*PostalCodes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to open postal-codes file")
	}
	defer f.Close()
	return ReadPostalCodes(f)
}

// ReadPostalCodes parses postal-code reference data from r. Split out from
// LoadPostalCodes so tests can feed in-memory data.
func ReadPostalCodes(r io.Reader) (*PostalCodes, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to read postal-codes header")
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	for _, required := range []string{"INDEX", "REGION", "CITY"} {
		if _, ok := idx[required]; !ok {
			return nil, errors.New(errors.ErrCodeSourceSchema, "postal-codes file is missing column "+required)
		}
	}

	table := make(map[string]RegionCity)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to read postal-codes row")
		}
		code := strings.TrimSpace(field(rec, idx["INDEX"]))
		if code == "" {
			continue
		}
		table[code] = RegionCity{
			Region: strings.TrimSpace(field(rec, idx["REGION"])),
			City:   strings.TrimSpace(field(rec, idx["CITY"])),
		}
	}

	return &PostalCodes{byCode: table}, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
