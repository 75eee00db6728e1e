package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/geminid/internal/cli/output"
	"github.com/yndnr/geminid/internal/infra/buildinfo"
	"github.com/yndnr/geminid/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "geminictl",
		Usage:   "geminid operator tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			FetchCommand(),
			StoreCommand(),
			ConfigCommand(),
			CertCommand(),
			StatusCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "geminid config file",
			EnvVars: []string{"GEMINID_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log debug output to stderr",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	Output  output.Format
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		format = output.FormatTable
	}
	return &GlobalFlags{
		Config:  c.String("config"),
		Output:  format,
		Verbose: c.Bool("verbose"),
	}
}

// render writes data to the App's writer in the selected format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(ParseGlobalFlags(c).Output).Format(stdout(c), data)
}

// cliLogger returns a text logger on stderr. Only warnings and errors
// are shown unless --verbose is set.
func cliLogger(c *cli.Context) logger.Logger {
	level := "warn"
	if ParseGlobalFlags(c).Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:  level,
		Format: "text",
		Output: stderr(c),
	})
	if err != nil {
		return logger.Discard()
	}
	return log
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
