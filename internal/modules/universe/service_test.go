package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return NewService(dir, zerolog.Nop()), dir
}

func TestSaveAndList(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Save("tech", []string{"aapl", " MSFT ", "GOOGL"}))

	got, err := svc.List("tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, got)
}

func TestList_SkipsCommentsAndDuplicates(t *testing.T) {
	svc, dir := newTestService(t)
	content := "# big tech\nAAPL\n\nmsft\nAAPL\n  GOOGL  \n# trailing note\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tech.txt"), []byte(content), 0o644))

	got, err := svc.List("tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, got)
}

func TestList_MissingUniverse(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List("nope")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	svc, dir := newTestService(t)
	require.NoError(t, svc.Save("sp500", []string{"AAPL"}))
	require.NoError(t, svc.Save("etfs", []string{"SPY"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	names, err := svc.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"etfs", "sp500"}, names)
}

func TestResolve_UnionsPreservingOrder(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Save("a", []string{"AAPL", "MSFT"}))
	require.NoError(t, svc.Save("b", []string{"MSFT", "NVDA"}))

	got, err := svc.Resolve([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, got)
}

func TestSave_ReplacesPreviousContents(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Save("watch", []string{"AAPL", "MSFT"}))
	require.NoError(t, svc.Save("watch", []string{"NVDA"}))

	got, err := svc.List("watch")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, got)
}
