// Package reliability computes rolling-window suite reliability and detects
// flaky tests from recent per-test history.
package reliability

import (
	"github.com/ci-tooling/test-reliability/pkg/api"
)

const (
	// reliabilityWindow bounds how many of the most recent suite runs feed
	// the aggregate reliability figure, so that a long green history cannot
	// mask a recent regression.
	reliabilityWindow = 50
	// flakyWindow bounds how many of the most recent runs of a single test
	// feed flakiness detection.
	flakyWindow = 20
	// flakyThreshold is the failure rate above which a test is reported.
	// A single failure in a full 20-build sample already crosses it.
	flakyThreshold = 0.01
	// timingDurationRatio classifies a flaky test as Timing when the median
	// failing-run duration exceeds this multiple of the median passing-run
	// duration. Tunable; 1.5 separates contention-shaped failures from
	// plain toggling in practice.
	timingDurationRatio = 1.5
)

// Tracker accumulates suite-run and test-run records for one CI invocation
// and answers reliability queries over a bounded recent window.
//
// A Tracker is a trusting aggregator: records are appended exactly as given,
// in ingestion order, with no validation. It assumes a single writer and a
// single reader within one process lifetime and uses no locking.
type Tracker struct {
	suiteRuns   []api.TestSuiteRun
	totalBuilds int

	runsByTest map[string][]api.TestRun
}

// NewTracker returns an empty tracker. Each CI invocation owns one freshly
// constructed instance; there is no package-level singleton.
func NewTracker() *Tracker {
	return &Tracker{
		runsByTest: map[string][]api.TestRun{},
	}
}

// AddTestSuite records one build's aggregate suite result. Malformed counts
// are accepted as given; validation is the ingestion caller's concern.
func (t *Tracker) AddTestSuite(run api.TestSuiteRun) {
	t.suiteRuns = append(t.suiteRuns, run)
	t.totalBuilds++
}

// AddTestRun records one execution of one named test. These records feed
// DetectFlakyTests only; they do not contribute to suite reliability.
func (t *Tracker) AddTestRun(run api.TestRun) {
	t.runsByTest[run.TestName] = append(t.runsByTest[run.TestName], run)
}

// Clear resets all suite-run and test-run history and counters.
func (t *Tracker) Clear() {
	t.suiteRuns = nil
	t.totalBuilds = 0
	t.runsByTest = map[string][]api.TestRun{}
}

// CalculateReliability aggregates the most recent suite runs into an overall
// reliability percentage and a per-build trend series, oldest first.
//
// Ingestion order is authoritative for windowing; out-of-order build numbers
// or timestamps do not reorder the window. An empty window, or a window
// containing no test executions, reports 100% reliability rather than NaN:
// no evidence of failure.
func (t *Tracker) CalculateReliability() api.ReliabilityMetrics {
	window := t.suiteRuns
	if len(window) > reliabilityWindow {
		window = window[len(window)-reliabilityWindow:]
	}

	metrics := api.ReliabilityMetrics{
		OverallReliability: 100,
		BuildWindow:        len(window),
		TotalBuilds:        t.totalBuilds,
		Trend:              []float64{},
	}

	var totalTests, passedTests int
	for _, run := range window {
		totalTests += run.TotalTests
		passedTests += run.PassedTests

		buildReliability := float64(100)
		if run.TotalTests > 0 {
			buildReliability = 100 * float64(run.PassedTests) / float64(run.TotalTests)
		}
		metrics.Trend = append(metrics.Trend, buildReliability)
	}

	if totalTests > 0 {
		metrics.OverallReliability = 100 * float64(passedTests) / float64(totalTests)
	}

	return metrics
}
