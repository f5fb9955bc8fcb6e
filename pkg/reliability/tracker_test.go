package reliability

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ci-tooling/test-reliability/pkg/api"
)

func suiteRun(buildNumber int64, total, passed int) api.TestSuiteRun {
	return api.TestSuiteRun{
		SuiteName:   "unit",
		BuildNumber: buildNumber,
		Timestamp:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		TotalTests:  total,
		PassedTests: passed,
		FailedTests: total - passed,
		Duration:    1000,
	}
}

func TestCalculateReliabilityEmpty(t *testing.T) {
	tracker := NewTracker()

	metrics := tracker.CalculateReliability()

	expected := api.ReliabilityMetrics{
		OverallReliability: 100,
		BuildWindow:        0,
		TotalBuilds:        0,
		Trend:              []float64{},
	}
	if diff := cmp.Diff(expected, metrics); diff != "" {
		t.Errorf("unexpected metrics for empty tracker: %s", diff)
	}
}

func TestCalculateReliabilityWindowsRecentBuilds(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < 55; i++ {
		tracker.AddTestSuite(suiteRun(int64(i+1), 10, 10))
	}
	for i := 0; i < 5; i++ {
		tracker.AddTestSuite(suiteRun(int64(i+56), 10, 8))
	}

	metrics := tracker.CalculateReliability()

	assert.Equal(t, 50, metrics.BuildWindow)
	assert.Equal(t, 60, metrics.TotalBuilds)
	// window holds 45 green builds and the 5 regressed ones: 490/500
	assert.InDelta(t, 98.0, metrics.OverallReliability, 0.001)
	assert.Less(t, metrics.OverallReliability, 100.0)
	assert.Greater(t, metrics.OverallReliability, 90.0)
}

func TestCalculateReliabilityWeightsByTestCount(t *testing.T) {
	tracker := NewTracker()
	tracker.AddTestSuite(suiteRun(1, 100, 90))
	tracker.AddTestSuite(suiteRun(2, 50, 45))

	metrics := tracker.CalculateReliability()

	assert.InDelta(t, 90.0, metrics.OverallReliability, 0.001)
	assert.Equal(t, 2, metrics.BuildWindow)
	assert.Equal(t, 2, metrics.TotalBuilds)
}

func TestCalculateReliabilityTrend(t *testing.T) {
	tracker := NewTracker()
	tracker.AddTestSuite(suiteRun(1, 10, 10))
	tracker.AddTestSuite(suiteRun(2, 10, 5))
	tracker.AddTestSuite(suiteRun(3, 0, 0))
	tracker.AddTestSuite(suiteRun(4, 4, 1))

	metrics := tracker.CalculateReliability()

	// a run without tests contributes 100 to the trend, never NaN
	expected := []float64{100, 50, 100, 25}
	if diff := cmp.Diff(expected, metrics.Trend); diff != "" {
		t.Errorf("unexpected trend: %s", diff)
	}
	assert.Equal(t, metrics.BuildWindow, len(metrics.Trend))
	for i, value := range metrics.Trend {
		assert.GreaterOrEqual(t, value, 0.0, "trend[%d]", i)
		assert.LessOrEqual(t, value, 100.0, "trend[%d]", i)
	}
}

func TestCalculateReliabilityIngestionOrderIsAuthoritative(t *testing.T) {
	tracker := NewTracker()
	// out-of-order build numbers must not reorder the window
	tracker.AddTestSuite(suiteRun(5, 10, 10))
	tracker.AddTestSuite(suiteRun(3, 10, 0))

	metrics := tracker.CalculateReliability()

	expected := []float64{100, 0}
	if diff := cmp.Diff(expected, metrics.Trend); diff != "" {
		t.Errorf("unexpected trend: %s", diff)
	}
}

func TestCalculateReliabilityEmptyWindowSums(t *testing.T) {
	tracker := NewTracker()
	tracker.AddTestSuite(suiteRun(1, 0, 0))
	tracker.AddTestSuite(suiteRun(2, 0, 0))

	metrics := tracker.CalculateReliability()

	assert.Equal(t, 100.0, metrics.OverallReliability)
	assert.Equal(t, 2, metrics.BuildWindow)
}

func TestClearResetsEverything(t *testing.T) {
	tracker := NewTracker()
	tracker.AddTestSuite(suiteRun(1, 10, 8))
	tracker.AddTestRun(api.TestRun{TestName: "TestFoo", Status: api.TestStatusFailed, BuildNumber: 1})

	tracker.Clear()

	metrics := tracker.CalculateReliability()
	assert.Equal(t, 0, metrics.BuildWindow)
	assert.Equal(t, 0, metrics.TotalBuilds)
	assert.Equal(t, 100.0, metrics.OverallReliability)
	assert.Empty(t, metrics.Trend)
	assert.Empty(t, tracker.DetectFlakyTests())
}

func TestBuildWindowNeverExceedsTotalBuilds(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < 70; i++ {
		tracker.AddTestSuite(suiteRun(int64(i+1), 5, 5))
		metrics := tracker.CalculateReliability()
		assert.LessOrEqual(t, metrics.BuildWindow, 50)
		assert.LessOrEqual(t, metrics.BuildWindow, metrics.TotalBuilds)
	}
}
