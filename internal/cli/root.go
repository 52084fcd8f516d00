package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"brisk/internal/config"

	"github.com/spf13/cobra"
)

type options struct {
	conf       config.Configuration
	configFile string
	logLevel   string
	logFile    string
	logFormat  string
	settings   *config.Settings
	closeLog   func() error
}

func NewRootCmd(conf config.Configuration) *cobra.Command {
	o := &options{conf: conf, settings: &config.Settings{}}

	root := &cobra.Command{
		Use:   "brisk",
		Short: "Run tasks of a compiled brisk script",
		Long:  "brisk executes the components and tasks of a compiled script document (JSON or CBOR).",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(o.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			o.settings = settings
			if !cmd.Flags().Changed("log-level") && settings.LogLevel != "" {
				o.logLevel = settings.LogLevel
			}
			if !cmd.Flags().Changed("log-format") && settings.LogFormat != "" {
				o.logFormat = settings.LogFormat
			}
			o.closeLog, err = setupLogging(o.logLevel, o.logFormat, o.logFile, cmd.ErrOrStderr())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if o.closeLog != nil {
				return o.closeLog()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&o.configFile, "config", config.DefaultFile, "path to config file")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "error", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&o.logFile, "log-file", "", "log file path (if not set, logs to stderr)")
	root.PersistentFlags().StringVar(&o.logFormat, "log-format", "json", "log format: json or text")

	root.AddCommand(newRunCmd(o))
	root.AddCommand(newTasksCmd(o))
	root.AddCommand(newVersionCmd(o))

	return root
}

// exitStatus carries a non-zero exit code out of a command whose failure has
// already been reported.
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the command line and returns the process exit code.
func Execute(conf config.Configuration, args []string, stderr io.Writer) int {
	root := NewRootCmd(conf)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	var status *exitStatus
	if errors.As(err, &status) {
		return status.code
	}
	fmt.Fprintln(stderr, err)
	return 1
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
