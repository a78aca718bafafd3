package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/monitoring"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID: "abc12345-6789-0000-0000-000000000000",
			Job: model.Job{
				Scenario: "heat_pump", HousingType: "single-family-detached", County: "alameda",
				Supply: model.SupplyDefault, Commodity: model.CommodityElectricity,
			},
			Utility:   model.UtilityPGE,
			Status:    model.RunStatusComplete,
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Second),
		},
		{
			ID: "def12345-6789-0000-0000-000000000000",
			Job: model.Job{
				Scenario: "baseline", HousingType: "mf", County: "kern",
				Supply: model.SupplySolarStorage, Commodity: model.CommodityGas,
			},
			Utility: model.UtilitySCE,
			Status:  model.RunStatusFailed,
			Error: &model.RunError{
				Kind:    model.FailureDataShape,
				Message: "shape: missing column",
			},
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "COUNTY")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "alameda")
	assert.Contains(t, output, "heat_pump/single-family-detached")
	assert.Contains(t, output, "PG&E")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "solarstorage")
	assert.Contains(t, output, "data_shape")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestRunsStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	runs := []model.Run{
		{ID: "1", Status: model.RunStatusComplete, CreatedAt: now, UpdatedAt: now.Add(2 * time.Second)},
		{ID: "2", Status: model.RunStatusComplete, CreatedAt: now, UpdatedAt: now.Add(4 * time.Second)},
		{
			ID: "3", Status: model.RunStatusFailed,
			Error:     &model.RunError{Kind: model.FailureResolution, Message: "no utility"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "4", Status: model.RunStatusFailed,
			Error:     &model.RunError{Kind: model.FailureConfiguration, Message: "no plans"},
			CreatedAt: now, UpdatedAt: now,
		},
		{ID: "5", Status: model.RunStatusFailed, CreatedAt: now, UpdatedAt: now},
		{ID: "6", Status: model.RunStatusSkipped, CreatedAt: now, UpdatedAt: now},
		{ID: "7", Status: model.RunStatusRunning, CreatedAt: now, UpdatedAt: now},
	}

	stats := monitoring.Summarize(runs)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 2, stats.Complete)
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Running)
	assert.Equal(t, map[model.FailureKind]int{
		model.FailureResolution:    1,
		model.FailureConfiguration: 1,
		model.FailureInternal:      1,
	}, stats.ByKind)
	assert.InDelta(t, 3.0, stats.AvgDurSecs, 0.01)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Skipped:")
	assert.Contains(t, output, "resolution:")
	assert.Contains(t, output, "configuration:")
	assert.Contains(t, output, "Failure rate:")
	assert.Contains(t, output, "60.0%")
	assert.Contains(t, output, "3.0s")
	assert.NotContains(t, output, "Note:")

	stats.Truncated = true
	buf.Reset()
	formatRunStats(&buf, stats)
	assert.Contains(t, buf.String(), "only the newest 7 runs were counted")
}

func TestFormatAlerts(t *testing.T) {
	var buf bytes.Buffer
	formatAlerts(&buf, []monitoring.Alert{
		{Type: monitoring.AlertCatalogGap, Severity: "high", Message: "2 jobs failed on missing tariff catalog entries in last 24h"},
	})

	output := buf.String()
	assert.Contains(t, output, "SEVERITY")
	assert.Contains(t, output, "catalog_gap")
	assert.Contains(t, output, "missing tariff catalog entries")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
