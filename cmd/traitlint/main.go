package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"traitlint/internal/observ"
	"traitlint/internal/version"
)

// errFindings signals that check found error-level diagnostics. They are
// already printed, so main only sets the exit code.
var errFindings = errors.New("error-level diagnostics reported")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "traitlint",
		Short:         "Trait lints over compiler item dumps",
		Long:          `traitlint runs late lint passes, such as async_fn_in_trait, over HIR dumps exported by the compiler.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupColor(cmd); err != nil {
				return err
			}
			if err := setupLogging(cmd); err != nil {
				return err
			}
			return setupProfiling(cmd)
		},
	}

	// Глобальные флаги
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics kept per unit")
	root.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	root.PersistentFlags().String("mem-profile", "", "write heap profile to file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write runtime trace to file")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newFixCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newLintsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// main builds the CLI and executes it. Any error exits with status 1.
func main() {
	root := newRootCmd()
	err := root.Execute()
	if stopErr := stopProfiling(); stopErr != nil {
		fmt.Fprintln(os.Stderr, color.YellowString("warning:"), stopErr)
	}
	syncLogger()
	if err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		}
		os.Exit(1)
	}
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unsupported --color %q (must be auto, on or off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- fd fits int
}

var profiler *observ.Profiler

func setupProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var cfg observ.ProfileConfig
	var err error
	if cfg.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return err
	}
	if cfg.Heap, err = flags.GetString("mem-profile"); err != nil {
		return err
	}
	if cfg.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return err
	}
	if !cfg.Enabled() {
		return nil
	}
	profiler, err = observ.StartProfiles(cfg)
	return err
}

func stopProfiling() error {
	err := profiler.Stop()
	profiler = nil
	return err
}
