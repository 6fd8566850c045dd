package main

import (
	"fmt"
	"io"
	"os"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"

	"github.com/Neumenon/tonl/document"
	"github.com/Neumenon/tonl/pattern"
	"github.com/Neumenon/tonl/query"
	"github.com/Neumenon/tonl/tonl"
)

// ============================================================
// Input and output
// ============================================================

// readInput reads the file named by argument i, or stdin when it is
// absent or "-".
func readInput(c *cli.Context, i int) ([]byte, error) {
	name := c.Args().Get(i)
	if name == "" || name == "-" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return nil, goerrors.WrapPrefix(err, "read stdin", 0)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, goerrors.WrapPrefix(err, "read input", 0)
	}
	return data, nil
}

func writeJSON(c *cli.Context, v tonl.Value, pretty bool) error {
	var out []byte
	var err error
	if pretty {
		out, err = tonl.ToJSONIndent(v, "  ")
	} else {
		out, err = tonl.ToJSON(v)
	}
	if err != nil {
		return goerrors.Wrap(err, 0)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func documentOptions(c *cli.Context, log logrus.FieldLogger) document.Options {
	opts := document.DefaultOptions()
	opts.Decode.Strict = c.Bool("strict")
	opts.Logger = log
	return opts
}

// loadDocument reads argument i as JSON when it is valid JSON and as
// TONL otherwise.
func loadDocument(c *cli.Context, i int, log logrus.FieldLogger) (*document.Document, error) {
	data, err := readInput(c, i)
	if err != nil {
		return nil, err
	}
	opts := documentOptions(c, log)
	if gjson.ValidBytes(data) {
		log.WithField("bytes", len(data)).Debug("reading JSON input")
		return document.FromJSON(data, opts)
	}
	log.WithField("bytes", len(data)).Debug("reading TONL input")
	return document.Parse(string(data), opts)
}

// ============================================================
// Encoding flags
// ============================================================

func encodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "delimiter",
			Usage: "Field delimiter: , | ; or tab (default: chosen from the data)",
		},
		&cli.BoolFlag{
			Name:  "types",
			Usage: "Add type hints to column headers",
		},
		&cli.IntFlag{
			Name:  "indent",
			Usage: "Spaces per nesting level",
			Value: 2,
		},
		&cli.IntFlag{
			Name:  "inline-objects",
			Usage: "Write objects with up to N primitive members on one line",
		},
		&cli.BoolFlag{
			Name:  "multiline-lists",
			Usage: "Write primitive lists one item per line",
		},
	}
}

func encodeOptions(c *cli.Context) (tonl.EncodeOptions, error) {
	opts := tonl.DefaultEncodeOptions()
	if s := c.String("delimiter"); s != "" {
		d, ok := tonl.ParseDelimiter(s)
		if !ok {
			return opts, fmt.Errorf("invalid --delimiter %q", s)
		}
		opts.Delimiter = d
	}
	opts.IncludeTypes = c.Bool("types")
	opts.Indent = c.Int("indent")
	opts.SingleLineObjectMaxKeys = c.Int("inline-objects")
	opts.SingleLinePrimitiveLists = !c.Bool("multiline-lists")
	return opts, nil
}

func strictFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "strict",
		Usage: "Reject declared lengths that do not match the data",
	}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Indent JSON output",
	}
}

// ============================================================
// Commands
// ============================================================

func encodeCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Convert JSON to TONL",
		ArgsUsage: "[file]",
		Flags:     encodeFlags(),
		Action: func(c *cli.Context) error {
			data, err := readInput(c, 0)
			if err != nil {
				return err
			}
			opts, err := encodeOptions(c)
			if err != nil {
				return err
			}
			v, err := tonl.FromJSON(data)
			if err != nil {
				return goerrors.WrapPrefix(err, "parse JSON", 0)
			}
			text, err := tonl.EncodeWithOptions(v, opts)
			if err != nil {
				return goerrors.WrapPrefix(err, "encode", 0)
			}
			log.WithFields(logrus.Fields{"json_bytes": len(data), "tonl_bytes": len(text)}).Info("encoded")
			_, err = io.WriteString(c.App.Writer, text)
			return err
		},
	}
}

func decodeCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Convert TONL to JSON",
		ArgsUsage: "[file]",
		Flags:     []cli.Flag{prettyFlag(), strictFlag()},
		Action: func(c *cli.Context) error {
			data, err := readInput(c, 0)
			if err != nil {
				return err
			}
			opts := tonl.DefaultDecodeOptions()
			opts.Strict = c.Bool("strict")
			v, err := tonl.DecodeWithOptions(string(data), opts)
			if err != nil {
				return goerrors.WrapPrefix(err, "decode", 0)
			}
			log.WithField("tonl_bytes", len(data)).Info("decoded")
			return writeJSON(c, v, c.Bool("pretty"))
		},
	}
}

func formatCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "Re-encode TONL in canonical layout",
		ArgsUsage: "[file]",
		Flags:     append(encodeFlags(), strictFlag()),
		Action: func(c *cli.Context) error {
			data, err := readInput(c, 0)
			if err != nil {
				return err
			}
			opts, err := encodeOptions(c)
			if err != nil {
				return err
			}
			dopts := tonl.DefaultDecodeOptions()
			dopts.Strict = c.Bool("strict")
			v, err := tonl.DecodeWithOptions(string(data), dopts)
			if err != nil {
				return goerrors.WrapPrefix(err, "decode", 0)
			}
			text, err := tonl.EncodeWithOptions(v, opts)
			if err != nil {
				return goerrors.WrapPrefix(err, "encode", 0)
			}
			log.WithFields(logrus.Fields{"before": len(data), "after": len(text)}).Info("formatted")
			_, err = io.WriteString(c.App.Writer, text)
			return err
		},
	}
}

func queryCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Print every value a path matches as a JSON array",
		ArgsUsage: "<path> [file]",
		Flags:     []cli.Flag{prettyFlag(), strictFlag()},
		Action: func(c *cli.Context) error {
			expr := c.Args().First()
			if expr == "" {
				return fmt.Errorf("query: missing path expression")
			}
			doc, err := loadDocument(c, 1, log)
			if err != nil {
				return err
			}
			vals, err := doc.Query(expr)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"path": expr, "matches": len(vals)}).Info("query")
			return writeJSON(c, tonl.NewList(vals...), c.Bool("pretty"))
		},
	}
}

func getCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the value at a path as JSON",
		ArgsUsage: "<path> [file]",
		Flags:     []cli.Flag{prettyFlag(), strictFlag()},
		Action: func(c *cli.Context) error {
			expr := c.Args().First()
			if expr == "" {
				return fmt.Errorf("get: missing path expression")
			}
			doc, err := loadDocument(c, 1, log)
			if err != nil {
				return err
			}
			v, err := doc.Get(expr)
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("get: no value at %s", expr)
			}
			return writeJSON(c, v, c.Bool("pretty"))
		},
	}
}

func validatePathCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate-path",
		Usage:     "Parse and check a path expression",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			expr := c.Args().First()
			p, err := query.Parse(expr)
			if err != nil {
				return err
			}
			w := c.App.Writer
			res := query.Validate(p, query.DefaultValidateOptions())
			for _, d := range res.Diagnostics {
				fmt.Fprintf(w, "%s %s: %s (segment %d)\n", d.Severity, d.Code, d.Message, d.Segment)
			}
			a := query.Analyze(p)
			fmt.Fprintf(w, "canonical:  %s\n", p)
			fmt.Fprintf(w, "optimized:  %s\n", query.Optimize(p))
			fmt.Fprintf(w, "segments:   %d\n", a.Segments)
			fmt.Fprintf(w, "depth:      %d\n", a.Depth)
			fmt.Fprintf(w, "expanding:  %t\n", a.Expanding)
			fmt.Fprintf(w, "complexity: %d\n", a.Complexity)
			return res.Err(expr)
		},
	}
}

func checkPatternCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "check-pattern",
		Usage:     "Check a regular expression against the safety rules",
		ArgsUsage: "<pattern>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Usage: "Also match the pattern against this text",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Match time budget",
				Value: pattern.DefaultTimeout,
			},
			&cli.IntFlag{
				Name:  "max-length",
				Usage: "Longest accepted pattern",
				Value: pattern.DefaultMaxLength,
			},
			&cli.IntFlag{
				Name:  "max-nesting",
				Usage: "Deepest accepted group nesting",
				Value: pattern.DefaultMaxNestingDepth,
			},
			&cli.BoolFlag{
				Name:  "allow-backreferences",
				Usage: "Accept backreferences",
			},
			&cli.BoolFlag{
				Name:  "allow-lookarounds",
				Usage: "Accept lookahead and lookbehind",
			},
		},
		Action: func(c *cli.Context) error {
			pat := c.Args().First()
			if pat == "" {
				return fmt.Errorf("check-pattern: missing pattern")
			}
			opts := pattern.ExecOptions{
				Timeout: c.Duration("timeout"),
				Validate: pattern.ValidateOptions{
					MaxLength:           c.Int("max-length"),
					MaxNestingDepth:     c.Int("max-nesting"),
					AllowBackreferences: c.Bool("allow-backreferences"),
					AllowLookarounds:    c.Bool("allow-lookarounds"),
				},
				Logger: log,
			}
			m, err := pattern.Compile(pat, opts)
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintf(w, "ok: nesting depth %d\n", pattern.NestingDepth(pat))
			if !c.IsSet("input") {
				return nil
			}
			start := time.Now()
			matched, err := m.Match(c.String("input"))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "match: %t (%s)\n", matched, time.Since(start).Round(time.Microsecond))
			return nil
		},
	}
}

func statsCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show document shape and size against JSON",
		ArgsUsage: "[file]",
		Flags:     []cli.Flag{strictFlag()},
		Action: func(c *cli.Context) error {
			doc, err := loadDocument(c, 0, log)
			if err != nil {
				return err
			}
			st, err := doc.Stats()
			if err != nil {
				return err
			}
			m, err := measure(doc.Value())
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintf(w, "nodes:      %d\n", st.NodeCount)
			fmt.Fprintf(w, "max depth:  %d\n", st.MaxDepth)
			fmt.Fprintf(w, "objects:    %d\n", st.ObjectCount)
			fmt.Fprintf(w, "arrays:     %d\n", st.ArrayCount)
			fmt.Fprintf(w, "primitives: %d\n", st.PrimitiveCount)
			fmt.Fprintf(w, "JSON:       %d bytes, ~%d tokens\n", m.JSONBytes, m.JSONTokens)
			fmt.Fprintf(w, "TONL:       %d bytes, ~%d tokens\n", m.TONLBytes, m.TONLTokens)
			fmt.Fprintf(w, "saved:      %.1f%% bytes, %.1f%% tokens\n", m.BytesPct, m.TokensPct)
			return nil
		},
	}
}
