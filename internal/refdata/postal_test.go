package refdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patreg-insight/pkg/errors"
)

const sampleCSV = `INDEX,REGION,CITY
101000,Moscow,Moscow
190000,Saint Petersburg,Saint Petersburg
630099,Novosibirsk Oblast,Novosibirsk
,Ignored,Row
`

func TestReadPostalCodes(t *testing.T) {
	pc, err := ReadPostalCodes(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, pc.Len())

	region, city, ok := pc.Lookup("101000")
	require.True(t, ok)
	assert.Equal(t, "Moscow", region)
	assert.Equal(t, "Moscow", city)

	_, _, ok = pc.Lookup("000000")
	assert.False(t, ok)
}

func TestReadPostalCodesMissingColumn(t *testing.T) {
	_, err := ReadPostalCodes(strings.NewReader("INDEX,REGION\n101000,Moscow\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceSchema))
}

func TestLookupOnNilTable(t *testing.T) {
	var pc *PostalCodes
	_, _, ok := pc.Lookup("101000")
	assert.False(t, ok)
	assert.Equal(t, 0, pc.Len())
}
