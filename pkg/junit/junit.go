package junit

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/ci-tooling/test-reliability/pkg/api"
)

// LoadDir walks dir for junit XML files (junit*.xml) and combines their
// contents into a single TestSuites document. Each file is parsed as a
// <testsuites> document first and as a bare <testsuite> when that fails.
func LoadDir(fs afero.Fs, dir string) (*TestSuites, error) {
	var junitPaths []string
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, "junit") && strings.HasSuffix(base, ".xml") {
			junitPaths = append(junitPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s for junit files: %w", dir, err)
	}

	combined := &TestSuites{}
	for _, path := range junitPaths {
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read junit file %q: %w", path, err)
		}

		// try as testsuites first just in case we are one
		currSuites := &TestSuites{}
		suitesErr := xml.Unmarshal(content, currSuites)
		if suitesErr == nil {
			combined.Suites = append(combined.Suites, currSuites.Suites...)
			continue
		}

		currSuite := &TestSuite{}
		if suiteErr := xml.Unmarshal(content, currSuite); suiteErr != nil {
			return nil, fmt.Errorf("failed to parse junit file %q: %v then %w", path, suitesErr, suiteErr)
		}
		combined.Suites = append(combined.Suites, currSuite)
	}

	return combined, nil
}

// SuiteRecords converts one parsed suite into a suite-run record plus one
// test-run record per case, tagging everything with the given build number
// and timestamp. Pass/fail/skip counts are recomputed from the cases rather
// than trusted from the suite attributes, and nested suites contribute their
// cases to the parent record.
func SuiteRecords(suite *TestSuite, buildNumber int64, timestamp time.Time) (api.TestSuiteRun, []api.TestRun) {
	suiteRun := api.TestSuiteRun{
		SuiteName:   suite.Name,
		BuildNumber: buildNumber,
		Timestamp:   timestamp,
		Duration:    suite.Duration * 1000,
	}

	var testRuns []api.TestRun
	collectCases(suite, func(testCase *TestCase) {
		run := api.TestRun{
			TestName:    testCase.Name,
			Status:      caseStatus(testCase),
			Duration:    testCase.Duration * 1000,
			BuildNumber: buildNumber,
			Timestamp:   timestamp,
		}
		testRuns = append(testRuns, run)

		suiteRun.TotalTests++
		switch run.Status {
		case api.TestStatusFailed:
			suiteRun.FailedTests++
		case api.TestStatusSkipped:
			suiteRun.SkippedTests++
		default:
			suiteRun.PassedTests++
		}
	})

	return suiteRun, testRuns
}

// Records converts every top-level suite in the document, returning one
// suite-run record per suite and the flattened test-run records.
func Records(suites *TestSuites, buildNumber int64, timestamp time.Time) ([]api.TestSuiteRun, []api.TestRun) {
	var suiteRuns []api.TestSuiteRun
	var testRuns []api.TestRun
	for _, suite := range suites.Suites {
		suiteRun, runs := SuiteRecords(suite, buildNumber, timestamp)
		suiteRuns = append(suiteRuns, suiteRun)
		testRuns = append(testRuns, runs...)
	}
	return suiteRuns, testRuns
}

func collectCases(suite *TestSuite, visit func(*TestCase)) {
	for _, testCase := range suite.TestCases {
		visit(testCase)
	}
	for _, child := range suite.Children {
		collectCases(child, visit)
	}
}

func caseStatus(testCase *TestCase) api.TestStatus {
	switch {
	case testCase.FailureOutput != nil:
		return api.TestStatusFailed
	case testCase.SkipMessage != nil:
		return api.TestStatusSkipped
	default:
		return api.TestStatusPassed
	}
}
