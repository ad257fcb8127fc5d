package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	stage := "shipping"
	metrics.ObserveStage(stage, 250*time.Millisecond)
	metrics.IncStageFailure(stage)
	metrics.IncOrderPlaced()
	metrics.IncOrderFailed()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_stage_failure", "stage", stage); err != nil {
		t.Fatalf("fetch stage failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected stage failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_stage_duration_seconds", "stage", stage); err != nil {
		t.Fatalf("fetch stage duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got := fetchPlainCounter(mfs, "checkout_orders_placed"); got != 1 {
		t.Fatalf("expected placed=1, got %f", got)
	}
	if got := fetchPlainCounter(mfs, "checkout_orders_failed"); got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}
}

func TestCheckoutMetricsNilRegistererIsInert(t *testing.T) {
	metrics := NewCheckoutMetrics(nil)
	metrics.ObserveStage("payment", time.Second)
	metrics.IncStageFailure("payment")
	metrics.IncOrderPlaced()
	metrics.IncOrderFailed()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func fetchPlainCounter(mfs []*dto.MetricFamily, name string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return -1
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
