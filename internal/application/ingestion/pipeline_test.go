package ingestion

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patreg-insight/internal/domain/ownership"
	"github.com/turtacn/patreg-insight/internal/parsing"
	"github.com/turtacn/patreg-insight/pkg/errors"
)

// fakeSource serves pre-chunked rows.
type fakeSource struct {
	columns []string
	chunks  [][]parsing.Row
	pos     int
}

func (s *fakeSource) Columns() []string { return s.columns }

func (s *fakeSource) Next() ([]parsing.Row, error) {
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *fakeSource) Close() error { return nil }

// fakeOwnershipStore keeps links in memory and enforces uniqueness with
// all-or-nothing batch semantics, mirroring the real store's contract.
type fakeOwnershipStore struct {
	records map[string]*ownership.Ownership
}

func newFakeOwnershipStore() *fakeOwnershipStore {
	return &fakeOwnershipStore{records: make(map[string]*ownership.Ownership)}
}

func (s *fakeOwnershipStore) InsertBatch(_ context.Context, records []*ownership.Ownership) error {
	for _, r := range records {
		if _, exists := s.records[r.DedupKey()]; exists {
			return errors.New(errors.ErrCodeBatchPersist, "duplicate key in batch")
		}
	}
	for _, r := range records {
		s.records[r.DedupKey()] = r
	}
	return nil
}

func (s *fakeOwnershipStore) CountAll(context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

func ownershipColumns() []string {
	return []string{"patent_kind", "patent_number", "person_tax_number"}
}

func linkRow(kind, num, tax string) parsing.Row {
	return parsing.Row{"patent_kind": kind, "patent_number": num, "person_tax_number": tax}
}

func newOwnershipPipeline(store Store[*ownership.Ownership]) *Pipeline[*ownership.Ownership] {
	return NewPipeline("ownership", parsing.NewOwnershipDecoder(), store, nil, nil)
}

func TestPipelineSkipsAndCommits(t *testing.T) {
	store := newFakeOwnershipStore()
	p := newOwnershipPipeline(store)

	src := &fakeSource{
		columns: ownershipColumns(),
		chunks: [][]parsing.Row{{
			linkRow("1", "100", "7701234567"),
			linkRow("1", "", "7701234567"),
			linkRow("2", "200", "500100732259"),
		}},
	}

	summary, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, int64(3), summary.Read)
	assert.Equal(t, int64(2), summary.Committed)
	assert.Equal(t, int64(0), summary.FailedBatches)
	assert.Equal(t, int64(0), summary.ExistingRecords)
	assert.Equal(t, map[parsing.SkipReason]int64{parsing.SkipMissingKey: 1}, summary.SkippedByReason)
}

func TestPipelineRerunFailsBatches(t *testing.T) {
	store := newFakeOwnershipStore()
	p := newOwnershipPipeline(store)

	chunks := [][]parsing.Row{{
		linkRow("1", "100", "7701234567"),
		linkRow("2", "200", "500100732259"),
	}}

	summary, err := p.Run(context.Background(), &fakeSource{columns: ownershipColumns(), chunks: chunks})
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.Committed)

	// Same file again: every chunk collides with committed rows and is
	// rejected whole.
	summary, err = p.Run(context.Background(), &fakeSource{columns: ownershipColumns(), chunks: chunks})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, int64(2), summary.ExistingRecords)
	assert.Equal(t, int64(0), summary.Committed)
	assert.Equal(t, int64(1), summary.FailedBatches)
	assert.Equal(t, int64(2), summary.RowsInFailedBatches)
}

func TestPipelineIntraChunkDedup(t *testing.T) {
	store := newFakeOwnershipStore()
	p := newOwnershipPipeline(store)

	src := &fakeSource{
		columns: ownershipColumns(),
		chunks: [][]parsing.Row{{
			linkRow("1", "100", "7701234567"),
			linkRow("1", "100", "7701234567"),
			linkRow("1", "100", "7701234567"),
		}},
	}

	summary, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.Committed)
	assert.Equal(t, int64(2), summary.SkippedByReason[parsing.SkipDuplicateInChunk])
	assert.Equal(t, int64(0), summary.FailedBatches)
}

func TestPipelineFailedBatchDoesNotStopRun(t *testing.T) {
	store := newFakeOwnershipStore()
	require.NoError(t, store.InsertBatch(context.Background(),
		[]*ownership.Ownership{{PatentKind: 1, PatentRegNumber: 100, PersonTaxNumber: "7701234567"}}))

	p := newOwnershipPipeline(store)
	src := &fakeSource{
		columns: ownershipColumns(),
		chunks: [][]parsing.Row{
			{linkRow("1", "100", "7701234567")}, // collides, chunk rejected
			{linkRow("2", "200", "500100732259")},
		},
	}

	summary, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, int64(1), summary.FailedBatches)
	assert.Equal(t, int64(1), summary.Committed)
	count, _ := store.CountAll(context.Background())
	assert.Equal(t, int64(2), count)
}

func TestPipelineSchemaMismatchAborts(t *testing.T) {
	p := newOwnershipPipeline(newFakeOwnershipStore())
	src := &fakeSource{
		columns: []string{"patent_kind", "patent_number"},
		chunks:  [][]parsing.Row{{linkRow("1", "100", "7701234567")}},
	}

	summary, err := p.Run(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceSchema))
	assert.Equal(t, StatusAborted, summary.Status)
	assert.Equal(t, int64(0), summary.Read)
}

func TestPipelineCancelledBetweenChunks(t *testing.T) {
	store := newFakeOwnershipStore()
	p := newOwnershipPipeline(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{
		columns: ownershipColumns(),
		chunks:  [][]parsing.Row{{linkRow("1", "100", "7701234567")}},
	}

	summary, err := p.Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, summary.Status)
	assert.Equal(t, int64(0), summary.Read)
	count, _ := store.CountAll(context.Background())
	assert.Equal(t, int64(0), count)
}
