package reliability

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kataras/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ci-tooling/test-reliability/pkg/api"
	"github.com/ci-tooling/test-reliability/pkg/history"
	"github.com/ci-tooling/test-reliability/pkg/junit"
)

// AnalyzeFlags holds the user input for the analyze command.
type AnalyzeFlags struct {
	Store       *history.StoreFlags
	JunitDir    string
	BuildNumber int64
	Environment string
	DryRun      bool
}

func NewAnalyzeFlags() *AnalyzeFlags {
	return &AnalyzeFlags{
		Store:       history.NewStoreFlags(),
		Environment: defaultEnvironment(),
	}
}

func defaultEnvironment() string {
	if os.Getenv("CI") != "" {
		return "ci"
	}
	return "local"
}

func (f *AnalyzeFlags) BindFlags(fs *pflag.FlagSet) {
	f.Store.BindFlags(fs)
	fs.StringVar(&f.JunitDir, "junit-dir", f.JunitDir, "Directory holding the junit XML results of this build.")
	fs.Int64Var(&f.BuildNumber, "build-number", f.BuildNumber, "Monotonic build number of this CI run.")
	fs.StringVar(&f.Environment, "environment", f.Environment, "Environment label recorded in the snapshot metadata.")
	fs.BoolVar(&f.DryRun, "dry-run", f.DryRun, "Analyze and print, but do not update the persisted snapshot.")
}

// Validate checks to see if the user-input is likely to produce functional
// runtime options.
func (f *AnalyzeFlags) Validate() error {
	if len(f.JunitDir) == 0 {
		return fmt.Errorf("missing --junit-dir: like _artifacts/junit")
	}
	if f.BuildNumber < 1 {
		return fmt.Errorf("missing or invalid --build-number: must be a positive build number, got %d", f.BuildNumber)
	}
	return f.Store.Validate()
}

// ToOptions builds the runtime options.
func (f *AnalyzeFlags) ToOptions(ctx context.Context) (*AnalyzeOptions, error) {
	fs := afero.NewOsFs()
	return &AnalyzeOptions{
		fs:          fs,
		store:       f.Store.ToStore(fs),
		junitDir:    f.JunitDir,
		buildNumber: f.BuildNumber,
		environment: f.Environment,
		dryRun:      f.DryRun,
		now:         time.Now,
	}, nil
}

// AnalyzeOptions ingests one build's junit results on top of the persisted
// history, prints the reliability and flakiness report, and saves the merged
// snapshot.
type AnalyzeOptions struct {
	fs          afero.Fs
	store       *history.Store
	junitDir    string
	buildNumber int64
	environment string
	dryRun      bool
	now         func() time.Time
}

func (o *AnalyzeOptions) Run(ctx context.Context) error {
	data, err := o.store.Load(ctx)
	if err != nil {
		return err
	}

	// The tracker is rebuilt from the snapshot every invocation; the hot
	// computation path stays free of I/O and the two stores stay decoupled.
	tracker := NewTracker()
	for _, suiteRun := range data.TestSuites {
		tracker.AddTestSuite(suiteRun)
	}
	for _, testRun := range data.TestRuns {
		tracker.AddTestRun(testRun)
	}

	suites, err := junit.LoadDir(o.fs, o.junitDir)
	if err != nil {
		return fmt.Errorf("failed to load junit results from %q: %w", o.junitDir, err)
	}
	timestamp := o.now().UTC()
	suiteRuns, testRuns := junit.Records(suites, o.buildNumber, timestamp)
	if len(suiteRuns) == 0 {
		logrus.WithField("junit-dir", o.junitDir).Warn("No junit results found")
	}

	for _, suiteRun := range suiteRuns {
		logrus.WithField("suite", suiteRun.SuiteName).WithField("build", suiteRun.BuildNumber).
			Infof("Ingested %d tests: %d passed, %d failed, %d skipped",
				suiteRun.TotalTests, suiteRun.PassedTests, suiteRun.FailedTests, suiteRun.SkippedTests)
		tracker.AddTestSuite(suiteRun)
	}
	for _, testRun := range testRuns {
		tracker.AddTestRun(testRun)
	}

	metrics := tracker.CalculateReliability()
	flaky := tracker.DetectFlakyTests()
	printReliability(metrics)
	printFlakyTests(flaky)

	if o.dryRun {
		logrus.Info("Dry run, leaving the persisted snapshot untouched")
		return nil
	}

	data.TestRuns = append(data.TestRuns, testRuns...)
	data.TestSuites = append(data.TestSuites, suiteRuns...)
	data.Metadata.TotalBuilds = metrics.TotalBuilds
	data.Metadata.Environment = o.environment
	if err := o.store.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to persist merged history: %w", err)
	}

	return nil
}

func printReliability(metrics api.ReliabilityMetrics) {
	fmt.Printf("Suite reliability over the last %d of %d builds: %.2f%%\n",
		metrics.BuildWindow, metrics.TotalBuilds, metrics.OverallReliability)
}

func printFlakyTests(flaky []api.FlakyTestRecord) {
	if len(flaky) == 0 {
		fmt.Printf("No flaky tests detected\n")
		return
	}

	fmt.Printf("Flaky tests\n")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"test", "failure rate", "builds", "pattern"})
	for _, record := range flaky {
		table.Append([]string{
			record.TestName,
			fmt.Sprintf("%.1f%%", 100*record.FailureRate),
			strconv.Itoa(record.InconsistentBuilds),
			string(record.Pattern),
		})
	}
	table.Render()
}

func NewAnalyzeCommand() *cobra.Command {
	f := NewAnalyzeFlags()

	cmd := &cobra.Command{
		Use:          "analyze",
		Long:         `Ingest one build's junit results, report rolling reliability and flaky tests, and update the persisted history.`,
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := f.Validate(); err != nil {
				logrus.WithError(err).Fatal("Flags are invalid")
			}
			o, err := f.ToOptions(ctx)
			if err != nil {
				logrus.WithError(err).Fatal("Failed to build runtime options")
			}

			if err := o.Run(ctx); err != nil {
				logrus.WithError(err).Fatal("Command failed")
			}

			return nil
		},
	}

	f.BindFlags(cmd.Flags())

	return cmd
}
