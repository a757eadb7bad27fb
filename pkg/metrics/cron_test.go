package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// sample returns the series of family name whose labels include every pair
// in want, or nil.
func sample(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, series := range family.GetMetric() {
			if hasLabels(series, want) {
				return series
			}
		}
	}
	return nil
}

func hasLabels(series *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, pair := range series.GetLabel() {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func TestCronMetricsRecordsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronMetrics(reg)
	m.ObserveRun("auto-assign", 120*time.Millisecond, nil)
	m.ObserveRun("auto-assign", 80*time.Millisecond, nil)
	m.ObserveRun("auto-assign", time.Second, errors.New("lost db"))
	m.IncSkipped()

	ok := sample(t, reg, "cron_job_runs_total", map[string]string{"job": "auto-assign", "result": CronSucceeded})
	if ok == nil || ok.GetCounter().GetValue() != 2 {
		t.Fatalf("expected two successful runs, got %v", ok)
	}
	failed := sample(t, reg, "cron_job_runs_total", map[string]string{"job": "auto-assign", "result": CronFailed})
	if failed == nil || failed.GetCounter().GetValue() != 1 {
		t.Fatalf("expected one failed run, got %v", failed)
	}
	hist := sample(t, reg, "cron_job_duration_seconds", map[string]string{"job": "auto-assign"})
	if hist == nil || hist.GetHistogram().GetSampleCount() != 3 {
		t.Fatalf("expected three duration samples, got %v", hist)
	}
	skipped := sample(t, reg, "cron_cycles_skipped_total", nil)
	if skipped == nil || skipped.GetCounter().GetValue() != 1 {
		t.Fatalf("expected one skipped cycle, got %v", skipped)
	}
}

func TestCronMetricsBlankJobName(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCronMetrics(reg).ObserveRun("", time.Millisecond, nil)
	if sample(t, reg, "cron_job_runs_total", map[string]string{"job": "unknown"}) == nil {
		t.Fatal("blank job names should be reported as unknown")
	}
}
