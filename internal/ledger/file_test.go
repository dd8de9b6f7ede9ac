package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	return ids
}

func TestOpenFile_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_videos.json")

	l, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Contains("abc"))
}

func TestOpenFile_EmptyPath(t *testing.T) {
	_, err := OpenFile("")
	assert.Error(t, err)
}

func TestCommit_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed_videos.json")

	l, err := OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, l.Commit(ctx, "abc"))
	require.NoError(t, l.Commit(ctx, "abc"))

	assert.True(t, l.Contains("abc"))
	assert.Equal(t, []string{"abc"}, readEntries(t, path))
}

func TestCommit_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")

	l, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, l.Commit(ctx, "one"))
	require.NoError(t, l.Commit(ctx, "two"))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	assert.True(t, reopened.Contains("one"))
	assert.True(t, reopened.Contains("two"))
	assert.Equal(t, []string{"one", "two"}, reopened.IDs())
}

func TestOpenFile_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "processed_videos.json")

	l, err := OpenFile(path)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, l.Commit(context.Background(), "abc"))
	assert.True(t, l.Contains("abc"))
	assert.Equal(t, []string{"abc"}, readEntries(t, path))
}

func TestOpenFile_UnusableLocationFailsEarly(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	_, err := OpenFile(filepath.Join(blocker, "processed_videos.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger directory")
}

func TestCommit_RejectsEmptyID(t *testing.T) {
	l, err := OpenFile(filepath.Join(t.TempDir(), "l.json"))
	require.NoError(t, err)

	err = l.Commit(context.Background(), "")
	var commitErr *CommitError
	assert.True(t, errors.As(err, &commitErr))
	assert.Equal(t, 0, l.Len())
}

func TestOpenFile_DeduplicatesOnRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a","b","a","c","b"]`), 0644))

	l, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, l.IDs())

	// The next commit rewrites the file without duplicates.
	require.NoError(t, l.Commit(context.Background(), "d"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, readEntries(t, path))
}

func TestOpenFile_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", `{ not json`},
		{"object instead of array", `{"ids": ["a"]}`},
		{"numbers", `[1, 2, 3]`},
		{"empty entry", `["a", ""]`},
		{"truncated", `["a", "b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			l, err := OpenFile(path)
			assert.Nil(t, l)
			var corrupt *LedgerCorruptError
			require.True(t, errors.As(err, &corrupt), "expected LedgerCorruptError, got %v", err)
			assert.Equal(t, path, corrupt.Path)
		})
	}
}

func TestOpenFile_BlankFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	l, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestOpenFile_DirectoryIsCorrupt(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenFile(dir)
	var corrupt *LedgerCorruptError
	assert.True(t, errors.As(err, &corrupt))
}

func TestCommit_MergesConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	first, err := OpenFile(path)
	require.NoError(t, err)
	second, err := OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, first.Commit(ctx, "from-first"))
	require.NoError(t, second.Commit(ctx, "from-second"))

	assert.ElementsMatch(t, []string{"from-first", "from-second"}, readEntries(t, path))
	assert.True(t, second.Contains("from-first"))

	require.NoError(t, first.Refresh(ctx))
	assert.True(t, first.Contains("from-second"))
}

func TestRefresh_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("oops"), 0644))

	err = l.Refresh(context.Background())
	var corrupt *LedgerCorruptError
	assert.True(t, errors.As(err, &corrupt))
}

func TestLedgerCorruptError_Message(t *testing.T) {
	err := &LedgerCorruptError{Path: "p.json", Message: "bad", Cause: errors.New("eof")}
	assert.Equal(t, "ledger corrupt: p.json: bad: eof", err.Error())
	assert.Equal(t, "eof", errors.Unwrap(err).Error())

	noCause := &LedgerCorruptError{Path: "p.json", Message: "bad"}
	assert.Equal(t, "ledger corrupt: p.json: bad", noCause.Error())
}
