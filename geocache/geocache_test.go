package geocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacyproofs/zkip/rangetable"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "geocache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRows(t *testing.T) []rangetable.Row {
	t.Helper()
	row, err := rangetable.NewRow("1.0.0.0", "1.0.0.255", "AU")
	require.NoError(t, err)
	return []rangetable.Row{row}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get("geolite")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("geolite", testRows(t), time.Hour))

	table, ok, err := s.Get("geolite")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, table.Len())

	jurisdiction, found := table.Lookup(1 << 24)
	assert.True(t, found)
	assert.Equal(t, "AU", jurisdiction)
}

func TestExpiredEntryReadsAsAbsent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("geolite", testRows(t), -time.Second))

	_, ok, err := s.Get("geolite")
	require.NoError(t, err)
	assert.False(t, ok)

	// and it stays absent after lazy eviction
	_, ok, err = s.Get("geolite")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMalformedRowsNeverYieldATable(t *testing.T) {
	s := openTestStore(t)
	a, err := rangetable.NewRow("1.0.0.0", "1.0.0.10", "AU")
	require.NoError(t, err)
	b, err := rangetable.NewRow("1.0.0.5", "1.0.0.20", "NZ")
	require.NoError(t, err)
	require.NoError(t, s.Put("geolite", []rangetable.Row{a, b}, time.Hour))

	_, ok, err := s.Get("geolite")
	assert.ErrorIs(t, err, rangetable.ErrMalformedRangeTable)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("geolite", testRows(t), time.Hour))

	row, err := rangetable.NewRow("8.8.8.0", "8.8.8.255", "US")
	require.NoError(t, err)
	require.NoError(t, s.Put("geolite", []rangetable.Row{row}, time.Hour))

	table, ok, err := s.Get("geolite")
	require.NoError(t, err)
	require.True(t, ok)
	_, found := table.Lookup(1 << 24)
	assert.False(t, found)
	jurisdiction, found := table.Lookup(0x08080808)
	assert.True(t, found)
	assert.Equal(t, "US", jurisdiction)
}
