package monitoring

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/store"
)

// mockStore implements store.Store for testing.
type mockStore struct {
	runs      []model.Run
	listErr   error
	filter    store.RunFilter
	limitRuns bool
}

func (m *mockStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.Run, error) {
	m.filter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	var filtered []model.Run
	for _, r := range m.runs {
		if !filter.CreatedAfter.IsZero() && r.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		filtered = append(filtered, r)
	}
	if m.limitRuns && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

// Unused store methods satisfy the interface.
func (m *mockStore) CreateRun(context.Context, model.Job) (*model.Run, error) { return nil, nil }
func (m *mockStore) CompleteRun(context.Context, string, model.Utility, *model.RunResult) error {
	return nil
}
func (m *mockStore) FailRun(context.Context, string, model.RunStatus, model.Utility, *model.RunError) error {
	return nil
}
func (m *mockStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }
func (m *mockStore) Migrate(context.Context) error                      { return nil }
func (m *mockStore) Close() error                                       { return nil }

func TestCollector_Collect(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := &mockStore{runs: []model.Run{
		{ID: "1", Status: model.RunStatusComplete, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour + 2*time.Second)},
		{ID: "2", Status: model.RunStatusComplete, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour + 4*time.Second)},
		{
			ID: "3", Status: model.RunStatusFailed, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now,
			Error: &model.RunError{Kind: model.FailureConfiguration, Message: "no rate section"},
		},
		{ID: "4", Status: model.RunStatusFailed, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now},
		{ID: "5", Status: model.RunStatusSkipped, CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now},
		{ID: "6", Status: model.RunStatusRunning, CreatedAt: now, UpdatedAt: now},
		{ID: "old", Status: model.RunStatusFailed, CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now},
	}}

	snap, err := NewCollector(st).Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 6, snap.Total)
	assert.Equal(t, 2, snap.Complete)
	assert.Equal(t, 2, snap.Failed)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, 1, snap.Running)
	assert.Equal(t, map[model.FailureKind]int{model.FailureConfiguration: 1, model.FailureInternal: 1}, snap.ByKind)
	assert.InDelta(t, 0.5, snap.FailRate, 1e-9)
	assert.InDelta(t, 1.0/6, snap.SkipRate, 1e-9)
	assert.InDelta(t, 3.0, snap.AvgDurSecs, 1e-6)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.Equal(t, 10000, st.filter.Limit)
	assert.False(t, snap.Truncated)
}

func TestCollector_Collect_Truncated(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := &mockStore{}
	for i := 0; i < 5; i++ {
		st.runs = append(st.runs, model.Run{ID: fmt.Sprint(i), Status: model.RunStatusComplete, CreatedAt: now, UpdatedAt: now})
	}

	c := NewCollector(st)
	c.maxRuns = 3
	st.limitRuns = true

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, 3, st.filter.Limit)
	assert.Equal(t, 3, snap.Total)
	assert.True(t, snap.Truncated)
}

func TestCollector_Collect_WholeLedger(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := &mockStore{runs: []model.Run{
		{ID: "old", Status: model.RunStatusComplete, CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now.Add(-48 * time.Hour)},
	}}

	snap, err := NewCollector(st).Collect(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, st.filter.CreatedAfter.IsZero())
	assert.Equal(t, 1, snap.Total)
}

func TestCollector_Collect_Error(t *testing.T) {
	t.Parallel()

	st := &mockStore{listErr: errors.New("db down")}
	_, err := NewCollector(st).Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list runs")
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	snap := Summarize(nil)
	assert.Equal(t, 0, snap.Total)
	assert.Zero(t, snap.FailRate)
	assert.Zero(t, snap.SkipRate)
	assert.NotNil(t, snap.ByKind)
}
