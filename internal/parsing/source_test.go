package parsing

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenCSVChunks(t *testing.T) {
	path := writeTempFile(t, "links.csv",
		"patent_kind,patent_number,person_tax_number\n"+
			"1,100,7701234567\n"+
			"1,101,7701234567\n"+
			"2,200,500100732259\n")

	src, err := Open(path, WithChunkSize(2))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, []string{"patent_kind", "patent_number", "person_tax_number"}, src.Columns())

	chunk, err := src.Next()
	require.NoError(t, err)
	require.Len(t, chunk, 2)
	assert.Equal(t, "100", chunk[0].Get("patent_number"))
	assert.Equal(t, "101", chunk[1].Get("patent_number"))

	chunk, err = src.Next()
	require.NoError(t, err)
	require.Len(t, chunk, 1)
	assert.Equal(t, "200", chunk[0].Get("patent_number"))

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpenCSVSemicolonDelimiter(t *testing.T) {
	path := writeTempFile(t, "persons.csv",
		"ИНН;Наименование полное\n7701234567;ООО Ромашка\n")

	src, err := Open(path, WithDelimiter(';'))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, []string{"ИНН", "Наименование полное"}, src.Columns())

	chunk, err := src.Next()
	require.NoError(t, err)
	require.Len(t, chunk, 1)
	assert.Equal(t, "7701234567", chunk[0].Get("ИНН"))
}

func TestOpenCSVShortRow(t *testing.T) {
	// Rows shorter than the header still decode; missing cells read as "".
	path := writeTempFile(t, "short.csv", "a,b,c\n1,2\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	chunk, err := src.Next()
	require.NoError(t, err)
	require.Len(t, chunk, 1)
	assert.Equal(t, "2", chunk[0].Get("b"))
	assert.Equal(t, "", chunk[0].Get("c"))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestOpenEmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "")
	_, err := Open(path)
	require.Error(t, err)
}
