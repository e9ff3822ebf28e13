package runstore

import (
	"context"
	"testing"

	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ran, err := s.HasRunBefore(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ran)

	require.NoError(t, s.MarkRun(ctx, "abc", "org1", jobs.JobResult{Success: true}))

	ran, err = s.HasRunBefore(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ran)

	// First writer wins on a second mark
	require.NoError(t, s.MarkRun(ctx, "abc", "org1", jobs.JobResult{Success: false, Error: "late"}))
	assert.Equal(t, jobs.JobResult{Success: true}, s.runs["abc"])
}
