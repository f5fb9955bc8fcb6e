package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kataras/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// dataDirEnvVar overrides the default data directory when set.
const dataDirEnvVar = "TEST_RELIABILITY_DATA_DIR"

// StoreFlags holds the user input shared by every command that touches the
// persisted snapshot.
type StoreFlags struct {
	DataDir        string
	MaxHistoryDays int
}

func NewStoreFlags() *StoreFlags {
	return &StoreFlags{
		DataDir:        defaultDataDir(),
		MaxHistoryDays: DefaultMaxHistoryDays,
	}
}

func defaultDataDir() string {
	if dir := os.Getenv(dataDirEnvVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".test-reliability"
	}
	return filepath.Join(home, ".test-reliability")
}

func (f *StoreFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.DataDir, "data-dir", f.DataDir, "Directory holding the persisted test-history snapshot.")
	fs.IntVar(&f.MaxHistoryDays, "max-history-days", f.MaxHistoryDays, "Retention window in days for historical metrics.")
}

func (f *StoreFlags) Validate() error {
	if len(f.DataDir) == 0 {
		return fmt.Errorf("missing --data-dir")
	}
	if f.MaxHistoryDays < 1 {
		return fmt.Errorf("--max-history-days must be at least 1, got %d", f.MaxHistoryDays)
	}
	return nil
}

// ToStore builds the runtime store on the given filesystem.
func (f *StoreFlags) ToStore(fs afero.Fs) *Store {
	return NewStore(fs, f.DataDir, f.MaxHistoryDays)
}

// HistoryFlags holds the user input for the history command.
type HistoryFlags struct {
	Store *StoreFlags
	Days  int
}

func NewHistoryFlags() *HistoryFlags {
	return &HistoryFlags{
		Store: NewStoreFlags(),
		Days:  DefaultMaxHistoryDays,
	}
}

func (f *HistoryFlags) BindFlags(fs *pflag.FlagSet) {
	f.Store.BindFlags(fs)
	fs.IntVar(&f.Days, "days", f.Days, "Trailing number of days to bucket.")
}

func (f *HistoryFlags) Validate() error {
	if err := f.Store.Validate(); err != nil {
		return err
	}
	if f.Days < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", f.Days)
	}
	return nil
}

func NewHistoryCommand() *cobra.Command {
	f := NewHistoryFlags()

	cmd := &cobra.Command{
		Use:          "history",
		Long:         `Print day-bucketed reliability derived from the persisted snapshot.`,
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := f.Validate(); err != nil {
				logrus.WithError(err).Fatal("Flags are invalid")
			}
			store := f.Store.ToStore(afero.NewOsFs())

			metrics, err := store.HistoricalMetrics(ctx, f.Days)
			if err != nil {
				logrus.WithError(err).Fatal("Failed to compute historical metrics")
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"date", "reliability", "suite runs", "tests", "passed"})
			for _, day := range metrics.DailyReliability {
				table.Append([]string{
					day.Date,
					fmt.Sprintf("%.2f%%", day.Reliability),
					strconv.Itoa(day.SuiteRuns),
					strconv.Itoa(day.TotalTests),
					strconv.Itoa(day.PassedTests),
				})
			}
			table.SetFooter([]string{"average", fmt.Sprintf("%.2f%%", metrics.Summary.AverageReliability), strconv.Itoa(metrics.Summary.SuiteRuns), "", ""})
			table.Render()

			return nil
		},
	}

	f.BindFlags(cmd.Flags())

	return cmd
}

// ExportFlags holds the user input for the export command.
type ExportFlags struct {
	Store  *StoreFlags
	Format string
	Output string
}

func NewExportFlags() *ExportFlags {
	return &ExportFlags{
		Store:  NewStoreFlags(),
		Format: FormatJSON,
	}
}

func (f *ExportFlags) BindFlags(fs *pflag.FlagSet) {
	f.Store.BindFlags(fs)
	fs.StringVar(&f.Format, "format", f.Format, "Export format, one of json or csv.")
	fs.StringVar(&f.Output, "output", f.Output, "File to write the export to; stdout when empty.")
}

func (f *ExportFlags) Validate() error {
	if err := f.Store.Validate(); err != nil {
		return err
	}
	if f.Format != FormatJSON && f.Format != FormatCSV {
		return fmt.Errorf("--format must be %q or %q, got %q", FormatJSON, FormatCSV, f.Format)
	}
	return nil
}

func NewExportCommand() *cobra.Command {
	f := NewExportFlags()

	cmd := &cobra.Command{
		Use:          "export",
		Long:         `Export the persisted snapshot as JSON or CSV.`,
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := f.Validate(); err != nil {
				logrus.WithError(err).Fatal("Flags are invalid")
			}
			store := f.Store.ToStore(afero.NewOsFs())

			content, err := store.Export(ctx, f.Format)
			if err != nil {
				logrus.WithError(err).Fatal("Failed to export test data")
			}

			if f.Output == "" {
				fmt.Print(content)
				return nil
			}
			if err := os.WriteFile(f.Output, []byte(content), 0644); err != nil {
				logrus.WithError(err).Fatalf("Failed to write export to %q", f.Output)
			}
			logrus.WithField("output", f.Output).Info("Wrote export")

			return nil
		},
	}

	f.BindFlags(cmd.Flags())

	return cmd
}

// ClearFlags holds the user input for the clear command.
type ClearFlags struct {
	Store *StoreFlags
	Yes   bool
}

func NewClearFlags() *ClearFlags {
	return &ClearFlags{
		Store: NewStoreFlags(),
	}
}

func (f *ClearFlags) BindFlags(fs *pflag.FlagSet) {
	f.Store.BindFlags(fs)
	fs.BoolVar(&f.Yes, "yes", f.Yes, "Confirm removal of the persisted snapshot.")
}

func (f *ClearFlags) Validate() error {
	if err := f.Store.Validate(); err != nil {
		return err
	}
	if !f.Yes {
		return fmt.Errorf("refusing to clear persisted data without --yes")
	}
	return nil
}

func NewClearCommand() *cobra.Command {
	f := NewClearFlags()

	cmd := &cobra.Command{
		Use:          "clear",
		Long:         `Remove the persisted snapshot. Fails when nothing was ever persisted.`,
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := f.Validate(); err != nil {
				logrus.WithError(err).Fatal("Flags are invalid")
			}
			store := f.Store.ToStore(afero.NewOsFs())

			if err := store.Clear(ctx); err != nil {
				logrus.WithError(err).Fatal("Failed to clear test data")
			}
			logrus.WithField("data-dir", f.Store.DataDir).Info("Cleared persisted test data")

			return nil
		},
	}

	f.BindFlags(cmd.Flags())

	return cmd
}
