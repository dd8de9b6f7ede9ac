package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows      []string
	listErr   error
	insertErr error
	inserts   int
}

func (f *fakeStore) ListProcessedVideoIDs(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]string, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeStore) InsertProcessedVideo(_ context.Context, id string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	for _, existing := range f.rows {
		if existing == id {
			return nil
		}
	}
	f.rows = append(f.rows, id)
	return nil
}

func TestOpenPostgres_Loads(t *testing.T) {
	store := &fakeStore{rows: []string{"a", "b", "a"}}

	l, err := OpenPostgres(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, l.IDs())
	assert.True(t, l.Contains("b"))
}

func TestOpenPostgres_LoadFailureIsCorrupt(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}

	_, err := OpenPostgres(context.Background(), store)
	var corrupt *LedgerCorruptError
	assert.True(t, errors.As(err, &corrupt))
}

func TestOpenPostgres_EmptyRowIsCorrupt(t *testing.T) {
	store := &fakeStore{rows: []string{"a", ""}}

	_, err := OpenPostgres(context.Background(), store)
	var corrupt *LedgerCorruptError
	assert.True(t, errors.As(err, &corrupt))
}

func TestPostgresCommit_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l, err := OpenPostgres(ctx, store)
	require.NoError(t, err)

	require.NoError(t, l.Commit(ctx, "x"))
	require.NoError(t, l.Commit(ctx, "x"))

	assert.True(t, l.Contains("x"))
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, []string{"x"}, store.rows)
}

func TestPostgresCommit_FailureNotVisible(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{insertErr: errors.New("disk full")}
	l, err := OpenPostgres(ctx, store)
	require.NoError(t, err)

	err = l.Commit(ctx, "x")
	var commitErr *CommitError
	require.True(t, errors.As(err, &commitErr))
	assert.Equal(t, "x", commitErr.ID)
	assert.False(t, l.Contains("x"))
}

func TestPostgresRefresh(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: []string{"a"}}
	l, err := OpenPostgres(ctx, store)
	require.NoError(t, err)

	store.rows = append(store.rows, "b")
	require.NoError(t, l.Refresh(ctx))
	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Contains("b"))
}
