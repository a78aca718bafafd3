package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/electrify-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testJob(county string, commodity model.Commodity) model.Job {
	return model.Job{
		Scenario:    "heat_pump",
		HousingType: "single-family-detached",
		County:      county,
		Supply:      model.SupplyDefault,
		Commodity:   commodity,
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job := testJob("alameda", model.CommodityElectricity)
		run, err := s.CreateRun(ctx, job)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)
		assert.Equal(t, job, run.Job)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.RunStatusRunning, got.Status)
		assert.Equal(t, job, got.Job)
		assert.Nil(t, got.Result)
		assert.Nil(t, got.Error)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetRun(context.Background(), "nonexistent-id")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRunNotFound))
	})

	t.Run("CompleteRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testJob("alameda", model.CommodityElectricity))
		require.NoError(t, err)

		result := &model.RunResult{
			Row:        "heat_pump",
			OutputPath: "/tmp/out.csv",
			Costs:      map[string]string{"electricity.PG&E.E-ELEC": "1502.11"},
		}
		require.NoError(t, s.CompleteRun(ctx, run.ID, model.UtilityPGE, result))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		assert.Equal(t, model.UtilityPGE, got.Utility)
		require.NotNil(t, got.Result)
		assert.Equal(t, result, got.Result)
	})

	t.Run("CompleteRunNotFound", func(t *testing.T) {
		s := newStore(t)

		err := s.CompleteRun(context.Background(), "nonexistent-id", model.UtilityPGE, &model.RunResult{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testJob("modoc", model.CommodityGas))
		require.NoError(t, err)

		runErr := &model.RunError{Kind: model.FailureResolution, Message: `resolve: county "modoc" has no utility`}
		require.NoError(t, s.FailRun(ctx, run.ID, model.RunStatusFailed, "", runErr))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, runErr, got.Error)
		assert.Nil(t, got.Result)
	})

	t.Run("FailRunRejectsCompleteStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testJob("kern", model.CommodityGas))
		require.NoError(t, err)
		assert.Error(t, s.FailRun(ctx, run.ID, model.RunStatusComplete, "", &model.RunError{}))
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		r1, err := s.CreateRun(ctx, testJob("alameda", model.CommodityElectricity))
		require.NoError(t, err)
		r2, err := s.CreateRun(ctx, testJob("kern", model.CommodityGas))
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, testJob("kern", model.CommodityElectricity))
		require.NoError(t, err)

		require.NoError(t, s.CompleteRun(ctx, r1.ID, model.UtilityPGE, &model.RunResult{Row: "heat_pump"}))
		require.NoError(t, s.FailRun(ctx, r2.ID, model.RunStatusSkipped, model.UtilitySCE,
			&model.RunError{Kind: model.FailureMissingInput, Message: "missing"}))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
		require.NoError(t, err)
		require.Len(t, complete, 1)
		assert.Equal(t, "alameda", complete[0].Job.County)

		kern, err := s.ListRuns(ctx, RunFilter{County: "kern"})
		require.NoError(t, err)
		assert.Len(t, kern, 2)

		gas, err := s.ListRuns(ctx, RunFilter{Commodity: model.CommodityGas, Scenario: "heat_pump"})
		require.NoError(t, err)
		require.Len(t, gas, 1)
		assert.Equal(t, model.RunStatusSkipped, gas[0].Status)

		none, err := s.ListRuns(ctx, RunFilter{Scenario: "baseline"})
		require.NoError(t, err)
		assert.Empty(t, none)

		recent, err := s.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(-time.Hour)})
		require.NoError(t, err)
		assert.Len(t, recent, 3)

		limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		offset, err := s.ListRuns(ctx, RunFilter{Limit: 10, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, offset, 1)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestNewSQLite_BadPath(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()

	pragmas := "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	assert.Equal(t, "runs.db?"+pragmas, sqliteDSN("runs.db"))
	assert.Equal(t, "file:runs.db?mode=rwc&"+pragmas, sqliteDSN("file:runs.db?mode=rwc"))
}

func TestSQLiteStore_ConcurrentWriters(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	const workers, jobsPerWorker = 8, 50
	result := &model.RunResult{Row: "heat_pump", Costs: map[string]string{"electricity.PG&E.E-ELEC": "1.00"}}

	var failures atomic.Int64
	var firstErr atomic.Value
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < jobsPerWorker; i++ {
				run, err := s.CreateRun(gctx, testJob(fmt.Sprintf("county-%d-%d", w, i), model.CommodityElectricity))
				if err == nil {
					err = s.CompleteRun(gctx, run.ID, model.UtilityPGE, result)
				}
				if err != nil {
					failures.Add(1)
					firstErr.CompareAndSwap(nil, err.Error())
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Zero(t, failures.Load(), "first ledger write failure: %v", firstErr.Load())

	runs, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete, Limit: workers * jobsPerWorker * 2})
	require.NoError(t, err)
	assert.Len(t, runs, workers*jobsPerWorker)
}
