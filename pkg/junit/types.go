// Package junit models the subset of the jUnit XML format emitted by the
// test runners feeding this engine and converts parsed documents into
// ingestion records.
package junit

import "encoding/xml"

// TestSuites is a collection of suites from one results document.
type TestSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []*TestSuite `xml:"testsuite"`
}

// TestSuite holds the results of one suite of tests.
type TestSuite struct {
	XMLName xml.Name `xml:"testsuite"`

	Name string `xml:"name,attr"`

	// NumTests records the number of tests in the suite.
	NumTests uint `xml:"tests,attr"`
	// NumSkipped records the number of skipped tests.
	NumSkipped uint `xml:"skipped,attr"`
	// NumFailed records the number of failed tests.
	NumFailed uint `xml:"failures,attr"`

	// Duration is the suite runtime in seconds.
	Duration float64 `xml:"time,attr"`

	TestCases []*TestCase  `xml:"testcase"`
	Children  []*TestSuite `xml:"testsuite"`
}

// TestCase is one test case within a suite.
type TestCase struct {
	Name      string `xml:"name,attr"`
	ClassName string `xml:"classname,attr"`

	// Duration is the case runtime in seconds.
	Duration float64 `xml:"time,attr"`

	// SkipMessage is present only when the case was skipped.
	SkipMessage *SkipMessage `xml:"skipped"`
	// FailureOutput is present only when the case failed.
	FailureOutput *FailureOutput `xml:"failure"`

	SystemOut string `xml:"system-out,omitempty"`
	SystemErr string `xml:"system-err,omitempty"`
}

// SkipMessage explains why a test case was skipped.
type SkipMessage struct {
	Message string `xml:"message,attr"`
}

// FailureOutput holds the output of a failed test case.
type FailureOutput struct {
	Message string `xml:"message,attr"`
	Output  string `xml:",chardata"`
}
