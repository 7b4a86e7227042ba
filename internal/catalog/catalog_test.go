package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpilot/internal/jobs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_SeedsDemoJobs(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(demoJobs))
	assert.NotEmpty(t, list[0].Skills)
}

func TestHide_RemovesFromListing(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	before, err := s.List(ctx)
	require.NoError(t, err)
	target := before[0].ID

	require.NoError(t, s.Hide(ctx, target))
	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	for _, job := range after {
		assert.NotEqual(t, target, job.ID)
	}

	// Hidden jobs stay resolvable by id and can be restored.
	got, err := s.Get(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, target, got.ID)

	require.NoError(t, s.Unhide(ctx, target))
	restored, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, restored, len(before))
}

func TestHide_UnknownJobFails(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.Error(t, s.Hide(context.Background(), "no-such-job"))
}

func TestUpsert_ReplacesExistingRow(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	job := Job{
		Summary: jobs.Summary{ID: "job-x", Title: "Engineer", Company: "Acme"},
		Skills:  []string{"go"},
	}
	require.NoError(t, s.Upsert(ctx, job))

	job.Title = "Staff Engineer"
	job.Skills = []string{"go", "grpc"}
	require.NoError(t, s.Upsert(ctx, job))

	got, err := s.Get(ctx, "job-x")
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", got.Title)
	assert.Equal(t, []string{"go", "grpc"}, got.Skills)
}
