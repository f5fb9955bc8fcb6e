package history

import (
	"context"
	"fmt"
	"sort"

	"github.com/ci-tooling/test-reliability/pkg/api"
)

const dayLayout = "2006-01-02"

// HistoricalMetrics buckets the persisted suite runs by UTC calendar day
// over the trailing days window and computes per-day reliability plus an
// overall average. The window is additionally capped by the store's
// retention setting, so records past maxHistoryDays never resurface through
// a generous days argument.
//
// Days with no recorded runs are omitted rather than emitted as filler, and
// an entirely empty window reports a 100% average: no evidence of failure.
func (s *Store) HistoricalMetrics(ctx context.Context, days int) (api.HistoricalMetrics, error) {
	if days < 1 {
		return api.HistoricalMetrics{}, fmt.Errorf("days must be at least 1, got %d", days)
	}
	if days > s.maxHistoryDays {
		days = s.maxHistoryDays
	}

	data, err := s.Load(ctx)
	if err != nil {
		return api.HistoricalMetrics{}, err
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	buckets := map[string]*api.DailyReliability{}
	for _, run := range data.TestSuites {
		if run.Timestamp.Before(cutoff) {
			continue
		}
		day := run.Timestamp.UTC().Format(dayLayout)
		bucket, ok := buckets[day]
		if !ok {
			bucket = &api.DailyReliability{Date: day}
			buckets[day] = bucket
		}
		bucket.SuiteRuns++
		bucket.TotalTests += run.TotalTests
		bucket.PassedTests += run.PassedTests
	}

	dates := make([]string, 0, len(buckets))
	for day := range buckets {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	metrics := api.HistoricalMetrics{
		DailyReliability: []api.DailyReliability{},
		Trend:            []float64{},
		Summary:          api.HistoricalSummary{AverageReliability: 100},
	}
	var reliabilitySum float64
	for _, day := range dates {
		bucket := buckets[day]
		bucket.Reliability = 100
		if bucket.TotalTests > 0 {
			bucket.Reliability = 100 * float64(bucket.PassedTests) / float64(bucket.TotalTests)
		}

		metrics.DailyReliability = append(metrics.DailyReliability, *bucket)
		metrics.Trend = append(metrics.Trend, bucket.Reliability)
		metrics.Summary.SuiteRuns += bucket.SuiteRuns
		reliabilitySum += bucket.Reliability
	}
	metrics.Summary.Days = len(dates)
	if len(dates) > 0 {
		metrics.Summary.AverageReliability = reliabilitySum / float64(len(dates))
	}

	return metrics, nil
}
