package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTargets(t *testing.T) {
	path := writeFile(t, "targets.csv",
		"subreddit,min_score\n"+
			"golang,10\n"+
			"MachineLearning,5\n"+
			"rust\n")

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Target{
		{Subreddit: "golang", MinScore: 10},
		{Subreddit: "MachineLearning", MinScore: 5},
		{Subreddit: "rust", MinScore: 0},
	}, targets)
}

func TestLoadTargetsSkipsInvalidNames(t *testing.T) {
	path := writeFile(t, "targets.csv",
		"subreddit,min_score\n"+
			"ok_name,1\n"+
			"no spaces allowed,2\n"+
			"ab,3\n"+
			"this_name_is_far_too_long_for_reddit,4\n")

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "ok_name", targets[0].Subreddit)
}

func TestLoadTargetsBOM(t *testing.T) {
	path := writeFile(t, "targets.csv",
		"\ufeffsubreddit,min_score\ngolang,7\n")

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, domain.Target{Subreddit: "golang", MinScore: 7}, targets[0])
}

func TestLoadTargetsMissingFile(t *testing.T) {
	_, err := LoadTargets(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestLoadKeywords(t *testing.T) {
	path := writeFile(t, "keywords.csv",
		"keyword\nGoRoutine\n  Channels \n\n")

	keywords, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"goroutine", "channels"}, keywords)
}
