// Difference metrics between a preview base and its modified render
package metrics

import (
	"fmt"
	"sort"
	"time"

	"image-modifier-studio/internal/core"
)

// Metric compares two images of equal size.
type Metric interface {
	Calculate(original, processed *core.RasterImage) (float64, error)
	GetName() string
	GetDescription() string
	// GetRange returns the practical value range (min, max)
	GetRange() (float64, float64)
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with no metrics. The implementations
// live with the OpenCV bindings and are added with Register.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		metrics: make(map[string]Metric),
	}
}

func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Empty reports whether no metric is registered.
func (e *Evaluator) Empty() bool {
	return len(e.metrics) == 0
}

// CheckPair rejects nil, empty or differently sized images.
func CheckPair(original, processed *core.RasterImage) error {
	if original == nil || processed == nil || original.Size().Empty() || processed.Size().Empty() {
		return fmt.Errorf("empty images")
	}
	if original.Size() != processed.Size() {
		return fmt.Errorf("image dimensions mismatch: %s vs %s", original.Size(), processed.Size())
	}
	return nil
}

// Names returns the registered metric names in sorted order.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Evaluator) Calculate(name string, original, processed *core.RasterImage) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(original, processed)
}

// CalculateAll runs every registered metric, skipping the ones that fail.
func (e *Evaluator) CalculateAll(original, processed *core.RasterImage) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(original, processed); err == nil {
			results[name] = value
		}
	}
	return results
}

// GetMetricInfo returns information about all metrics
func (e *Evaluator) GetMetricInfo() map[string]MetricInfo {
	info := make(map[string]MetricInfo)
	for name, metric := range e.metrics {
		min, max := metric.GetRange()
		info[name] = MetricInfo{
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			Range:        [2]float64{min, max},
			HigherBetter: metric.IsHigherBetter(),
		}
	}
	return info
}

// MetricInfo provides metadata about a metric
type MetricInfo struct {
	Name         string
	Description  string
	Range        [2]float64 // [min, max]
	HigherBetter bool
}

// Report summarises how far a modified preview drifted from its base.
type Report struct {
	Similarity float64            `json:"similarity"`
	Metrics    map[string]float64 `json:"metrics"`
	Level      string             `json:"level"`
	Timestamp  string             `json:"timestamp"`
}

// LevelUnavailable marks a report for which no metric could be computed.
const LevelUnavailable = "unavailable"

// GenerateReport calculates every metric and a weighted similarity score in
// percent. 100 means the images are identical.
func (e *Evaluator) GenerateReport(original, processed *core.RasterImage) Report {
	metrics := e.CalculateAll(original, processed)
	report := Report{
		Metrics:   metrics,
		Level:     LevelUnavailable,
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
	}
	if len(metrics) == 0 {
		return report
	}

	report.Similarity = e.similarityScore(metrics)
	report.Level = changeLevel(report.Similarity)
	return report
}

func (e *Evaluator) similarityScore(metrics map[string]float64) float64 {
	weights := map[string]float64{
		"psnr": 0.4,
		"ssim": 0.4,
		"mae":  0.2,
	}

	totalWeight := 0.0
	weightedSum := 0.0
	for name, weight := range weights {
		if value, exists := metrics[name]; exists {
			weightedSum += e.normalizeMetric(name, value) * weight
			totalWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return (weightedSum / totalWeight) * 100
}

// normalizeMetric maps a value onto 0..1 where 1 is the better end.
func (e *Evaluator) normalizeMetric(name string, value float64) float64 {
	metric, exists := e.metrics[name]
	if !exists {
		return 0
	}

	min, max := metric.GetRange()
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	if max == min {
		return 1.0
	}

	normalized := (value - min) / (max - min)
	if !metric.IsHigherBetter() {
		normalized = 1.0 - normalized
	}
	return normalized
}

func changeLevel(similarity float64) string {
	switch {
	case similarity >= 99.5:
		return "unchanged"
	case similarity >= 90:
		return "subtle"
	case similarity >= 70:
		return "moderate"
	default:
		return "strong"
	}
}
