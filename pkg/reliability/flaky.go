package reliability

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/ci-tooling/test-reliability/pkg/api"
)

// DetectFlakyTests inspects the most recent runs of every distinct test and
// reports those whose failure rate crosses the flakiness threshold, with a
// pattern classification. Stable tests are not emitted at all.
//
// Detection never fails: a test with no recorded runs simply does not appear,
// and no record is discarded for low confidence. Severity judgment is left to
// the consumer. Output order is deterministic: descending failure rate, test
// name as tiebreaker.
func (t *Tracker) DetectFlakyTests() []api.FlakyTestRecord {
	var flaky []api.FlakyTestRecord
	for testName, runs := range t.runsByTest {
		window := runs
		if len(window) > flakyWindow {
			window = window[len(window)-flakyWindow:]
		}
		if len(window) == 0 {
			continue
		}

		failures := 0
		for _, run := range window {
			if run.Status == api.TestStatusFailed {
				failures++
			}
		}

		failureRate := float64(failures) / float64(len(window))
		if failureRate <= flakyThreshold {
			continue
		}

		flaky = append(flaky, api.FlakyTestRecord{
			TestName:           testName,
			FailureRate:        failureRate,
			InconsistentBuilds: len(window),
			Pattern:            classifyPattern(window),
		})
	}

	sort.Slice(flaky, func(i, j int) bool {
		if flaky[i].FailureRate != flaky[j].FailureRate {
			return flaky[i].FailureRate > flaky[j].FailureRate
		}
		return flaky[i].TestName < flaky[j].TestName
	})

	return flaky
}

// classifyPattern decides between the Timing and Intermittent patterns for a
// test already over the flakiness threshold. Failures that skew markedly
// longer than passes signal a contention or timeout-adjacent flake; anything
// else is plain intermittence.
func classifyPattern(window []api.TestRun) api.FlakePattern {
	var passDurations, failDurations []float64
	for _, run := range window {
		switch run.Status {
		case api.TestStatusPassed:
			passDurations = append(passDurations, run.Duration)
		case api.TestStatusFailed:
			failDurations = append(failDurations, run.Duration)
		}
	}

	// An all-fail history has no passing baseline to compare against.
	if len(passDurations) == 0 || len(failDurations) == 0 {
		return api.FlakePatternIntermittent
	}

	passMedian, err := stats.Median(stats.Float64Data(passDurations))
	if err != nil {
		return api.FlakePatternIntermittent
	}
	failMedian, err := stats.Median(stats.Float64Data(failDurations))
	if err != nil {
		return api.FlakePatternIntermittent
	}

	if passMedian > 0 && failMedian > timingDurationRatio*passMedian {
		return api.FlakePatternTiming
	}
	return api.FlakePatternIntermittent
}
