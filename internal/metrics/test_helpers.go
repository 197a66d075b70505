package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// CounterValue returns the current value of a CounterVec child for the given
// labels. Intended for tests in packages that update these collectors.
func CounterValue(metric *prometheus.CounterVec, labels map[string]string) (float64, error) {
	pb := &dto.Metric{}
	if err := metric.With(labels).Write(pb); err != nil {
		return 0, err
	}
	return pb.GetCounter().GetValue(), nil
}

// GaugeValue returns the current value of a GaugeVec child for the given labels.
func GaugeValue(metric *prometheus.GaugeVec, labels map[string]string) (float64, error) {
	pb := &dto.Metric{}
	if err := metric.With(labels).Write(pb); err != nil {
		return 0, err
	}
	return pb.GetGauge().GetValue(), nil
}
