// tonl - command line tool for TONL documents
//
// Usage:
//
//	tonl encode [options] [file]             Convert JSON to TONL
//	tonl decode [--pretty] [file]            Convert TONL to JSON
//	tonl format [options] [file]             Re-encode TONL canonically
//	tonl query <path> [file]                 Print every match as a JSON array
//	tonl get <path> [file]                   Print a single value as JSON
//	tonl validate-path <path>                Check a path expression
//	tonl check-pattern [--input s] <regex>   Check a pattern against the safety rules
//	tonl stats [file]                        Summarize a document
//	tonl bench <file.json>...                Compare JSON and TONL sizes
//
// Input formats are detected: anything that is valid JSON is read as
// JSON, everything else as TONL. If no file is given, reads from stdin.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const libVersion = "0.1.0"

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	log := logrus.New()
	log.SetOutput(stderr)

	app := newApp(log)
	app.Reader = stdin
	app.Writer = stdout
	app.ErrWriter = stderr

	if err := app.Run(args); err != nil {
		var ge *goerrors.Error
		if log.IsLevelEnabled(logrus.DebugLevel) && errors.As(err, &ge) {
			log.Debug(ge.ErrorStack())
		}
		log.Error(err)
		return 1
	}
	return 0
}

func newApp(log *logrus.Logger) *cli.App {
	return &cli.App{
		Name:    "tonl",
		Usage:   "Encode, decode and query TONL documents",
		Version: libVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json",
				Value: "text",
			},
		},
		Before: func(c *cli.Context) error {
			return configureLogger(log, c.String("log-level"), c.String("log-format"))
		},
		Commands: []*cli.Command{
			encodeCommand(log),
			decodeCommand(log),
			formatCommand(log),
			queryCommand(log),
			getCommand(log),
			validatePathCommand(),
			checkPatternCommand(log),
			statsCommand(log),
			benchCommand(log),
		},
	}
}

func configureLogger(log *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetLevel(lvl)
	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid --log-format %q: want text or json", format)
	}
	return nil
}
