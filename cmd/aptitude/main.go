package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pengelbrecht/aptitude/internal/config"
	"github.com/pengelbrecht/aptitude/internal/countdown"
	"github.com/pengelbrecht/aptitude/internal/engine"
	"github.com/pengelbrecht/aptitude/internal/questions"
	"github.com/pengelbrecht/aptitude/internal/session"
	"github.com/pengelbrecht/aptitude/internal/tui"
	"github.com/pengelbrecht/aptitude/internal/update"
)

var version = "dev"

// app carries state shared by subcommands after the root pre-run.
type app struct {
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "aptitude",
		Short: "Timed aptitude tests in the terminal",
		Long: `Aptitude runs timed multiple-choice tests in a terminal UI. Candidates
wait in a short waiting room, then answer questions against a countdown that
submits automatically when time runs out.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := cfg.Logging.Level
			if cmd.Flags().Changed("log-level") {
				level = a.logLevel
			}
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logrus.SetLevel(lvl)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cmd.Name() == "upgrade" {
				return
			}
			if notice := update.NewChecker(version).Notice(cmd.Context()); notice != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), notice)
			}
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		a.testCmd(),
		a.countdownCmd(),
		a.banksCmd(),
		a.resultsCmd(),
		a.profileCmd(),
		a.upgradeCmd(),
	)
	return root
}

func (a *app) testCmd() *cobra.Command {
	var (
		bankID   string
		pick     bool
		noWait   bool
		duration string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Take a timed test",
		Long: `Test opens the waiting room for a question bank and then runs the timed
test. The result is written to the results directory when the test ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := questions.Load()
			if err != nil {
				return err
			}

			var bank *questions.Bank
			if pick {
				bank, err = pickBank(catalog)
				if err != nil {
					return err
				}
				if bank == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No test selected.")
					return nil
				}
			} else {
				if bankID == "" {
					bankID = a.cfg.Test.Bank
				}
				if bank, err = catalog.Get(bankID); err != nil {
					return err
				}
			}

			tuiCfg, err := a.tuiConfig(bank, duration, noWait)
			if err != nil {
				return err
			}
			model, err := tui.New(tuiCfg)
			if err != nil {
				return err
			}

			closeLog, err := logToFile(a.cfg.Logging.File)
			if err != nil {
				return err
			}
			defer closeLog()

			final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("running TUI: %w", err)
			}

			s := final.(tui.Model).Session()
			if s == nil || !s.Ended() {
				fmt.Fprintln(cmd.OutOrStdout(), "Test not started.")
				return nil
			}

			result := s.Result()
			mgr := session.NewManagerWithDir(a.cfg.Test.ResultsDir)
			if err := mgr.Save(result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d (%.0f%%), %s, %s left\n",
				bank.Title, result.Score, result.Total, result.Percent(),
				result.EndReason, countdown.FormatClock(result.RemainingSeconds))
			fmt.Fprintf(cmd.OutOrStdout(), "Result saved to %s\n",
				filepath.Join(mgr.Dir(), result.ID+".json"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&bankID, "bank", "b", "", "Question bank ID (default from config)")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose the bank interactively")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Skip the waiting room")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "Override the test time limit (e.g. 20m)")
	cmd.MarkFlagsMutuallyExclusive("bank", "pick")
	return cmd
}

// tuiConfig resolves durations and thresholds for a bank from flags and config.
func (a *app) tuiConfig(bank *questions.Bank, duration string, noWait bool) (tui.Config, error) {
	if duration == "" {
		duration = a.cfg.Test.Duration
	}
	testSeconds, err := config.Seconds(duration)
	if err != nil {
		return tui.Config{}, fmt.Errorf("duration: %w", err)
	}
	if testSeconds == 0 {
		if testSeconds, err = bank.Seconds(); err != nil {
			return tui.Config{}, err
		}
	}

	warning, err := config.Seconds(a.cfg.Test.Warning)
	if err != nil {
		return tui.Config{}, err
	}
	critical, err := config.Seconds(a.cfg.Test.Critical)
	if err != nil {
		return tui.Config{}, err
	}

	var wait int
	if !noWait {
		if wait, err = config.Seconds(a.cfg.WaitingRoom.Duration); err != nil {
			return tui.Config{}, err
		}
	}

	return tui.Config{
		Bank:                bank,
		TestSeconds:         testSeconds,
		Thresholds:          fitThresholds(warning, critical, testSeconds),
		WaitSeconds:         wait,
		SecondsPerCandidate: a.cfg.WaitingRoom.SecondsPerCandidate,
	}, nil
}

// fitThresholds caps configured thresholds at the test length, since config
// values apply to every bank.
func fitThresholds(warning, critical, total int) *countdown.Thresholds {
	if warning > total {
		warning = total
	}
	if critical > warning {
		critical = warning
	}
	return &countdown.Thresholds{Warning: warning, Critical: critical}
}

// flagThresholds builds explicit thresholds when either flag was given.
// A flag left unset takes the default fitted to the countdown, so only the
// typed values can be rejected.
func flagThresholds(seconds, warning, critical int, setWarning, setCritical bool) *countdown.Thresholds {
	if !setWarning && !setCritical {
		return nil
	}
	fit := fitThresholds(countdown.DefaultWarning, countdown.DefaultCritical, seconds)
	if !setWarning {
		warning = fit.Warning
		if critical > warning {
			warning = min(critical, seconds)
		}
	}
	if !setCritical {
		critical = min(fit.Critical, warning)
	}
	return &countdown.Thresholds{Warning: warning, Critical: critical}
}

func pickBank(catalog *questions.Catalog) (*questions.Bank, error) {
	var banks []*questions.Bank
	for _, id := range catalog.IDs() {
		b, err := catalog.Get(id)
		if err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}

	final, err := tea.NewProgram(tui.NewPicker(banks)).Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}
	return final.(tui.Picker).Selected(), nil
}

// logToFile redirects logrus to path while the TUI owns the terminal.
func logToFile(path string) (func(), error) {
	if path == "" {
		logrus.SetOutput(os.Stderr)
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	return func() {
		logrus.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

func (a *app) countdownCmd() *cobra.Command {
	var (
		warning     int
		critical    int
		jsonl       bool
		reportEvery int
		label       string
	)

	cmd := &cobra.Command{
		Use:   "countdown <seconds>",
		Short: "Run a countdown without the TUI",
		Long: `Countdown runs a single countdown on stdout, reporting ticks, threshold
crossings and expiry. Interrupting it cancels the countdown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid seconds %q: %w", args[0], err)
			}

			runCfg := engine.RunConfig{Label: label, Seconds: seconds}
			runCfg.Thresholds = flagThresholds(seconds, warning, critical,
				cmd.Flags().Changed("warning"), cmd.Flags().Changed("critical"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := engine.NewHeadlessOutput(jsonl, reportEvery)
			out.SetWriter(cmd.OutOrStdout())
			eng := engine.NewEngine(nil)
			out.Attach(eng)

			_, err = eng.Run(ctx, runCfg)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				out.Error(err)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&warning, "warning", countdown.DefaultWarning, "Warning threshold in seconds")
	cmd.Flags().IntVar(&critical, "critical", countdown.DefaultCritical, "Critical threshold in seconds")
	cmd.Flags().BoolVar(&jsonl, "jsonl", false, "Emit JSON Lines instead of text")
	cmd.Flags().IntVar(&reportEvery, "report-every", 1, "Report a tick every N seconds")
	cmd.Flags().StringVar(&label, "label", engine.DefaultLabel, "Name shown in output")
	return cmd
}

func (a *app) banksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List available question banks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := questions.Load()
			if err != nil {
				return err
			}
			for _, id := range catalog.IDs() {
				b, err := catalog.Get(id)
				if err != nil {
					return err
				}
				secs, err := b.Seconds()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-28s %2d questions  %s\n",
					b.ID, b.Title, len(b.Questions), countdown.FormatClock(secs))
			}
			return nil
		},
	}
}

func (a *app) resultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "List saved test results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := session.NewManagerWithDir(a.cfg.Test.ResultsDir).List()
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results yet.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-14s %-9s %d/%d (%.0f%%)  %s left\n",
					r.EndedAt.Local().Format("2006-01-02 15:04"), r.Bank, r.EndReason,
					r.Score, r.Total, r.Percent(), countdown.FormatClock(r.RemainingSeconds))
			}
			return nil
		},
	}
}

func (a *app) upgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade aptitude to the latest version",
		Long:  `Downloads the latest GitHub release and replaces the running binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Current version: %s\n", version)
			fmt.Fprintln(cmd.OutOrStdout(), "Checking for updates...")
			latest, err := update.NewChecker(version).Apply(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated to %s\n", latest)
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
