package parsing

// SkipReason is the machine-readable cause of a skipped row.
type SkipReason string

const (
	// SkipMissingKey marks a row whose mandatory key field is empty.
	SkipMissingKey SkipReason = "missing_key"

	// SkipBadRegNumber marks a key field present but with no extractable
	// registration number.
	SkipBadRegNumber SkipReason = "bad_reg_number"

	// SkipBadTaxNumber marks a tax number outside the 9..12 digit envelope.
	SkipBadTaxNumber SkipReason = "bad_tax_number"

	// SkipBadKind marks a patent kind outside {1,2,3}.
	SkipBadKind SkipReason = "bad_kind"

	// SkipNotHeadCompany marks an entity-registry branch row; only head
	// companies are ingested.
	SkipNotHeadCompany SkipReason = "not_head_company"

	// SkipDuplicateInChunk marks a row whose natural key already appeared
	// earlier in the same chunk. Cross-chunk duplicates are instead rejected
	// by the store's uniqueness constraint.
	SkipDuplicateInChunk SkipReason = "duplicate_in_chunk"
)

// Skip is the non-fatal outcome for one row that could not be normalized
// into a valid record. Decoders never raise for malformed data; they return
// a Skip and the pipeline keeps going.
type Skip struct {
	Reason SkipReason
}

// RowDecoder transforms raw rows of one entity kind into normalized records.
//
// DetectSchema runs once per file, before any row is decoded. It validates
// that every mandatory column is present (a setup-time contract; a missing
// column fails the whole ingestion) and binds any per-file context such as
// the active patent name column.
//
// DecodeRow returns either a record or a Skip, never both. DedupKey returns
// the canonical natural-key string used for intra-chunk deduplication.
type RowDecoder[R any] interface {
	DetectSchema(columns []string) error
	DecodeRow(row Row) (R, *Skip)
	DedupKey(record R) string
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
