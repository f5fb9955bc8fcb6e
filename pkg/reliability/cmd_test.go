package reliability

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-tooling/test-reliability/pkg/api"
	"github.com/ci-tooling/test-reliability/pkg/history"
)

const analyzeJunitXML = `<testsuite tests="2" failures="1" time="2" name="unit">
<testcase classname="login" name="TestLogin" time="0.5"/>
<testcase classname="checkout" name="TestCheckout" time="1.5">
<failure message="boom">stack</failure>
</testcase>
</testsuite>`

func newAnalyzeOptions(t *testing.T, fs afero.Fs, dryRun bool) *AnalyzeOptions {
	t.Helper()
	return &AnalyzeOptions{
		fs:          fs,
		store:       history.NewStore(fs, "/data", history.DefaultMaxHistoryDays),
		junitDir:    "/results",
		buildNumber: 2,
		environment: "ci",
		dryRun:      dryRun,
		now: func() time.Time {
			return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		},
	}
}

func seedResults(t *testing.T, fs afero.Fs) {
	t.Helper()
	require.NoError(t, fs.MkdirAll("/results", 0755))
	require.NoError(t, afero.WriteFile(fs, "/results/junit_unit.xml", []byte(analyzeJunitXML), 0644))
}

func TestAnalyzeMergesIntoSnapshot(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	seedResults(t, fs)

	store := history.NewStore(fs, "/data", history.DefaultMaxHistoryDays)
	require.NoError(t, store.Save(ctx, api.TestData{
		TestSuites: []api.TestSuiteRun{{
			SuiteName:   "unit",
			BuildNumber: 1,
			Timestamp:   time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
			TotalTests:  2,
			PassedTests: 2,
		}},
		TestRuns: []api.TestRun{
			{TestName: "TestLogin", Status: api.TestStatusPassed, Duration: 500, BuildNumber: 1},
			{TestName: "TestCheckout", Status: api.TestStatusPassed, Duration: 400, BuildNumber: 1},
		},
	}))

	o := newAnalyzeOptions(t, fs, false)
	require.NoError(t, o.Run(ctx))

	merged, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, merged.TestSuites, 2)
	assert.Len(t, merged.TestRuns, 4)
	assert.Equal(t, 2, merged.Metadata.TotalBuilds)
	assert.Equal(t, "ci", merged.Metadata.Environment)
}

func TestAnalyzeFirstRunStartsFromEmptyHistory(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	seedResults(t, fs)

	o := newAnalyzeOptions(t, fs, false)
	require.NoError(t, o.Run(ctx))

	merged, err := o.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, merged.TestSuites, 1)
	assert.Equal(t, 1, merged.Metadata.TotalBuilds)
}

func TestAnalyzeDryRunLeavesSnapshotUntouched(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	seedResults(t, fs)

	o := newAnalyzeOptions(t, fs, true)
	require.NoError(t, o.Run(ctx))

	loaded, err := o.store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.TestSuites)
}

func TestAnalyzeFlagsValidate(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(*AnalyzeFlags)
		expectedErr bool
	}{
		{
			name:   "valid",
			mutate: func(f *AnalyzeFlags) {},
		},
		{
			name:        "missing junit dir",
			mutate:      func(f *AnalyzeFlags) { f.JunitDir = "" },
			expectedErr: true,
		},
		{
			name:        "missing build number",
			mutate:      func(f *AnalyzeFlags) { f.BuildNumber = 0 },
			expectedErr: true,
		},
		{
			name:        "negative retention",
			mutate:      func(f *AnalyzeFlags) { f.Store.MaxHistoryDays = -1 },
			expectedErr: true,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			f := NewAnalyzeFlags()
			f.JunitDir = "/results"
			f.BuildNumber = 1
			testCase.mutate(f)

			err := f.Validate()
			if testCase.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
