package api

import "time"

// TestStatus is the outcome of a single test execution.
type TestStatus string

const (
	TestStatusPassed  TestStatus = "Passed"
	TestStatusFailed  TestStatus = "Failed"
	TestStatusSkipped TestStatus = "Skipped"
)

// TestRun is one execution of one named test within a build.
type TestRun struct {
	// TestName identifies the test across builds and must not be empty.
	TestName string     `json:"testName"`
	Status   TestStatus `json:"status"`
	// Duration is the wall-clock runtime in milliseconds.
	Duration float64 `json:"duration"`
	// BuildNumber is monotonic per CI run but not necessarily contiguous.
	BuildNumber int64     `json:"buildNumber"`
	Timestamp   time.Time `json:"timestamp"`
}

// TestSuiteRun is the aggregate result of one build's full suite run.
type TestSuiteRun struct {
	SuiteName    string    `json:"suiteName"`
	BuildNumber  int64     `json:"buildNumber"`
	Timestamp    time.Time `json:"timestamp"`
	TotalTests   int       `json:"totalTests"`
	PassedTests  int       `json:"passedTests"`
	FailedTests  int       `json:"failedTests"`
	SkippedTests int       `json:"skippedTests"`
	// Duration is the suite wall-clock runtime in milliseconds.
	Duration float64 `json:"duration"`
}

// ReliabilityMetrics summarizes suite health over the rolling build window.
type ReliabilityMetrics struct {
	// OverallReliability is the percentage of individual test executions
	// that passed within the window, in [0,100].
	OverallReliability float64 `json:"overallReliability"`
	// BuildWindow is the number of suite runs actually considered.
	BuildWindow int `json:"buildWindow"`
	// TotalBuilds counts every suite run ever ingested, unbounded.
	TotalBuilds int `json:"totalBuilds"`
	// Trend holds the per-build pass percentage for each windowed run,
	// oldest first.
	Trend []float64 `json:"trend"`
}

// FlakePattern classifies why a test's outcome varies across builds.
type FlakePattern string

const (
	// FlakePatternTiming marks tests whose failing runs take markedly
	// longer than their passing runs, pointing at contention or timeouts.
	FlakePatternTiming FlakePattern = "Timing"
	// FlakePatternIntermittent marks tests that toggle across builds
	// without a duration signature.
	FlakePatternIntermittent FlakePattern = "Intermittent"
	// FlakePatternStable is never emitted; stable tests are excluded from
	// detection output entirely.
	FlakePatternStable FlakePattern = "Stable"
)

// FlakyTestRecord describes one test whose recent failure rate crossed the
// flakiness threshold.
type FlakyTestRecord struct {
	TestName string `json:"testName"`
	// FailureRate is failures over builds considered, in [0,1].
	FailureRate float64 `json:"failureRate"`
	// InconsistentBuilds is the number of builds considered for this test.
	InconsistentBuilds int          `json:"inconsistentBuilds"`
	Pattern            FlakePattern `json:"pattern"`
}

// TestDataMetadata describes the provenance of a persisted snapshot.
type TestDataMetadata struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
	TotalBuilds int       `json:"totalBuilds"`
	Environment string    `json:"environment"`
}

// TestData is the durable snapshot shape. The JSON field names are the
// on-disk contract and must round-trip losslessly.
type TestData struct {
	TestRuns   []TestRun        `json:"testRuns"`
	TestSuites []TestSuiteRun   `json:"testSuites"`
	Metadata   TestDataMetadata `json:"metadata"`
}

// DailyReliability is one calendar day's aggregated suite results.
type DailyReliability struct {
	// Date is the UTC calendar day in 2006-01-02 form.
	Date        string  `json:"date"`
	Reliability float64 `json:"reliability"`
	SuiteRuns   int     `json:"suiteRuns"`
	TotalTests  int     `json:"totalTests"`
	PassedTests int     `json:"passedTests"`
}

// HistoricalSummary aggregates the day-bucketed series.
type HistoricalSummary struct {
	AverageReliability float64 `json:"averageReliability"`
	Days               int     `json:"days"`
	SuiteRuns          int     `json:"suiteRuns"`
}

// HistoricalMetrics is the day-bucketed view over persisted history.
type HistoricalMetrics struct {
	DailyReliability []DailyReliability `json:"dailyReliability"`
	// Trend is the per-day reliability series, oldest first.
	Trend   []float64         `json:"trend"`
	Summary HistoricalSummary `json:"summary"`
}
