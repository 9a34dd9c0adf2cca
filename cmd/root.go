package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/TheSilvered/Cursors/internal/config"
	"github.com/TheSilvered/Cursors/internal/pipeline"
	"github.com/TheSilvered/Cursors/internal/render"
	"github.com/TheSilvered/Cursors/internal/tui"
)

var (
	cfgPath   string
	plainMode bool
	watchMode bool
	force     bool
)

var rootCmd = &cobra.Command{
	Use:   "cursors",
	Short: "Generate Windows cursor files from SVG designs",
	Long: `Generate .cur and .ani cursor files from the SVG designs in the
source directory, rendering them through Inkscape, and package the
output directory with the installation manifest.

Run without arguments to generate everything.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to the YAML config")
	rootCmd.Flags().BoolVar(&plainMode, "plain", false, "log progress instead of the interactive view")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "stay running and regenerate on SVG changes")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "regenerate cursors even when up to date")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func runGenerate() error {
	if err := render.CheckInkscape(); err != nil {
		return err
	}
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return err
	}

	batch := pipeline.NewBatch(&render.Inkscape{Timeout: cfg.Render.Timeout.Duration}, cfg)
	batch.Force = force

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if watchMode {
		return runWatch(ctx, batch)
	}
	if plainMode || !isatty.IsTerminal(os.Stdout.Fd()) {
		return runPlain(ctx, batch)
	}
	return runProgress(ctx, cancel, batch, cfg)
}

// runPlain logs every pipeline event through charmbracelet/log.
func runPlain(ctx context.Context, batch *pipeline.Batch) error {
	sum, err := batch.Run(ctx, plainReport(newLogger()))
	if err != nil {
		return err
	}
	return finishSummary(sum)
}

// runProgress drives the batch behind the Bubble Tea progress view.
// The batch runs in a goroutine and streams events over a channel; the
// model quits when the channel closes.
func runProgress(ctx context.Context, cancel context.CancelFunc, batch *pipeline.Batch, cfg config.Config) error {
	names, err := listSourceNames(cfg.Dirs.Sources)
	if err != nil {
		return err
	}

	events := make(chan pipeline.Event, 16)
	done := make(chan struct{})
	var sum pipeline.Summary
	var runErr error

	go func() {
		defer close(done)
		defer close(events)
		sum, runErr = batch.Run(ctx, func(e pipeline.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
	}()

	finalModel, err := tea.NewProgram(tui.NewProgress(names, events)).Run()
	cancel()
	<-done
	if err != nil {
		return fmt.Errorf("progress view: %w", err)
	}
	if p, ok := finalModel.(tui.Progress); ok && p.Aborted() {
		return fmt.Errorf("aborted before the batch finished")
	}
	if runErr != nil {
		return runErr
	}
	return finishSummary(sum)
}

// runWatch keeps regenerating until interrupted. Watch mode is always
// plain: the terminal belongs to the log between runs.
func runWatch(ctx context.Context, batch *pipeline.Batch) error {
	logger := newLogger()
	err := batch.Watch(ctx, plainReport(logger), func(sum pipeline.Summary, err error) {
		if err != nil {
			logger.Error("batch aborted", "err", err)
			return
		}
		logger.Info("batch complete",
			"generated", sum.Generated,
			"up-to-date", sum.Skipped,
			"failed", len(sum.Failed))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
}

func plainReport(logger *log.Logger) func(pipeline.Event) {
	return func(e pipeline.Event) {
		switch {
		case e.Warning != "":
			logger.Warn(e.Warning, "cursor", e.Name)
		case e.Status == pipeline.StatusRendering:
			logger.Info("rendering", "cursor", e.Name)
		case e.Status == pipeline.StatusDone:
			logger.Info("generated", "cursor", e.Name)
		case e.Status == pipeline.StatusSkipped:
			logger.Info("up to date", "cursor", e.Name)
		case e.Status == pipeline.StatusFailed:
			logger.Error("generation failed", "cursor", e.Name, "err", e.Err)
		}
	}
}

var (
	summaryOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	summaryFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	summaryHintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// finishSummary prints the batch outcome and returns an error when any
// cursor failed, so the process exit status reflects partial failure.
func finishSummary(sum pipeline.Summary) error {
	total := sum.Generated + sum.Skipped + len(sum.Failed)
	line := fmt.Sprintf("%d generated, %d up to date, %d failed (%d total)",
		sum.Generated, sum.Skipped, len(sum.Failed), total)
	if sum.OK() {
		fmt.Println(summaryOKStyle.Render(line))
		return nil
	}

	fmt.Println(summaryFailStyle.Render(line))
	for _, f := range sum.Failed {
		fmt.Println(summaryFailStyle.Render("  ✗ "+f.Name) + " " + f.Err.Error())
	}
	fmt.Println(summaryHintStyle.Render(
		"Inkscape is known to crash when invoked many times in a row; re-running picks up the missing cursors."))
	return fmt.Errorf("%d of %d cursors failed", len(sum.Failed), total)
}

// listSourceNames returns the SVG stems in dir, used to pre-seed the
// progress view before the batch starts parsing anything.
func listSourceNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".svg") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return names, nil
}
