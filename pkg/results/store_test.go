package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
)

func sampleRun(t *testing.T) *Run {
	t.Helper()
	g := louvain.SampleGraph()
	cg, err := louvain.ToWeightedGraph(g)
	require.NoError(t, err)
	h, err := louvain.Run(context.Background(), cg, louvain.Options{})
	require.NoError(t, err)
	return NewRun("sample", g, h)
}

func TestNewRun(t *testing.T) {
	run := sampleRun(t)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "sample", run.Source)
	assert.Equal(t, 6, run.Nodes)
	assert.Len(t, run.Levels, 3)
	assert.Len(t, run.Membership, 6)
	assert.Equal(t, 2, run.Communities())
	assert.Equal(t, run.Levels[2].Modularity, run.Modularity)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)

	empty := NewRun("", &louvain.Graph{}, &louvain.Hierarchy{})
	assert.Zero(t, empty.Modularity)
	assert.Zero(t, empty.Communities())
}

func TestFileStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	run := sampleRun(t)
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Same(t, run, got)

	_, err = s.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}

func TestFileStore_Reload(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "runs")

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	run := sampleRun(t)
	require.NoError(t, s.SaveRun(ctx, run))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.Membership, got.Membership)
	assert.Equal(t, run.Modularity, got.Modularity)
	require.Len(t, got.Levels, 3)
	assert.Nil(t, got.Levels[0].Graph, "level graphs are not persisted")
	assert.Equal(t, run.Levels[1].Communities, got.Levels[1].Communities)
}

func TestFileStore_SaveFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	kept := sampleRun(t)
	require.NoError(t, s.SaveRun(ctx, kept))

	// A directory in place of the temp file makes the write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "runs.json.tmp"), 0o700))

	run := sampleRun(t)
	run.ID = "unsaved"
	assert.Error(t, s.SaveRun(ctx, run))

	_, err = s.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	replaced := *kept
	replaced.Source = "replaced"
	assert.Error(t, s.SaveRun(ctx, &replaced))
	got, err := s.GetRun(ctx, kept.ID)
	require.NoError(t, err)
	assert.Same(t, kept, got)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs.json"), []byte("{"), 0o600))

	_, err := NewFileStore(dir)
	assert.Error(t, err)
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.SaveRun(ctx, &Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
}
