package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitLog(t *testing.T, dir, format string) string {
	t.Helper()
	cmd := exec.Command("git", "log", "--format="+format, "-1")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return string(out)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	_, err := Init(dir)
	require.NoError(t, err)
	assert.True(t, IsRepo(dir))
}

func TestOpen_NotRepo(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorContains(t, err, "not a git repository")
}

func TestCommit(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "chart.csv"), []byte("kind,name,initial_balance\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("untracked"), 0o644))

	hash, err := r.Commit([]string{"chart.csv"}, "setup: chart", "meena")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Contains(t, gitLog(t, dir, "%s"), "setup: chart")
	assert.Contains(t, gitLog(t, dir, "%an <%ae>"), "meena <meena@cashbook.local>")

	cmd := exec.Command("git", "ls-files")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "chart.csv\n", string(out), "only the named paths are committed")
}

func TestCommit_NothingChanged(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x\n"), 0o644))

	_, err = r.Commit([]string{"a.csv"}, "first", "")
	require.NoError(t, err)

	hash, err := r.Commit([]string{"a.csv"}, "second", "")
	require.NoError(t, err)
	assert.Empty(t, hash)
	assert.Contains(t, gitLog(t, dir, "%an"), "system")
}
