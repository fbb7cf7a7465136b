package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/nodereg/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of the environment. It
// returns a populated Config, a boolean indicating if the program should exit
// cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	defaults, err := app.ConfigFromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("noderegd", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
noderegd - A registry of installable node-type modules.

Usage:
  noderegd [options]

Every option can also be set with the matching NODEREG_* environment variable.

Options:
`)
		flagSet.PrintDefaults()
	}

	listenFlag := flagSet.String("listen", defaults.ListenAddr, "Address the HTTP server listens on.")
	catalogFlag := flagSet.String("catalog-dir", defaults.CatalogDir, "Directory holding the packages that can be installed.")
	installFlag := flagSet.String("install-dir", defaults.InstallDir, "Directory installed packages are copied into.")
	settingsFlag := flagSet.String("settings", defaults.SettingsPath, "Path to the settings database. Empty disables changes.")
	readOnlyFlag := flagSet.Bool("read-only", defaults.ReadOnly, "Refuse every change to the registry.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	bufferFlag := flagSet.Int("notify-buffer", defaults.NotifyBuffer, "Number of change events buffered before new ones are dropped.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument: %s", flagSet.Arg(0))}
	}
	slog.Debug("Arguments parsed successfully.")

	config, err := app.NewConfig(app.Config{
		ListenAddr:   *listenFlag,
		CatalogDir:   *catalogFlag,
		InstallDir:   *installFlag,
		SettingsPath: *settingsFlag,
		ReadOnly:     *readOnlyFlag,
		LogFormat:    strings.ToLower(*logFormatFlag),
		LogLevel:     strings.ToLower(*logLevelFlag),
		NotifyBuffer: *bufferFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
