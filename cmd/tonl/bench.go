package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/Neumenon/tonl/tonl"
)

// Measurement compares the minified JSON and default TONL renderings of
// one value.
type Measurement struct {
	Name       string
	JSONBytes  int
	TONLBytes  int
	BytesSaved int
	BytesPct   float64
	JSONTokens int
	TONLTokens int
	TokensPct  float64
}

func measure(v tonl.Value) (Measurement, error) {
	js, err := tonl.ToJSON(v)
	if err != nil {
		return Measurement{}, goerrors.Wrap(err, 0)
	}
	text, err := tonl.Encode(v)
	if err != nil {
		return Measurement{}, goerrors.Wrap(err, 0)
	}
	m := Measurement{
		JSONBytes:  len(js),
		TONLBytes:  len(text),
		JSONTokens: estimateTokens(string(js)),
		TONLTokens: estimateTokens(text),
	}
	m.BytesSaved = m.JSONBytes - m.TONLBytes
	m.BytesPct = percent(m.BytesSaved, m.JSONBytes)
	m.TokensPct = percent(m.JSONTokens-m.TONLTokens, m.JSONTokens)
	return m, nil
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func benchCommand(log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "bench",
		Usage:     "Compare JSON and TONL size for a set of JSON files",
		ArgsUsage: "<file>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: csv or markdown",
				Value: "markdown",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("bench: no input files")
			}
			var results []Measurement
			var skipped error
			for _, name := range c.Args().Slice() {
				m, err := measureFile(name)
				if err != nil {
					log.WithField("file", name).WithError(err).Warn("skipped")
					skipped = multierror.Append(skipped, err)
					continue
				}
				results = append(results, m)
			}
			if len(results) == 0 {
				return skipped
			}
			switch strings.ToLower(c.String("format")) {
			case "csv":
				writeCSV(c.App.Writer, results)
			case "markdown", "md":
				writeMarkdown(c.App.Writer, results)
			default:
				return fmt.Errorf("bench: unknown format %q", c.String("format"))
			}
			return nil
		},
	}
}

func measureFile(name string) (Measurement, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return Measurement{}, goerrors.Wrap(err, 0)
	}
	v, err := tonl.FromJSON(data)
	if err != nil {
		return Measurement{}, goerrors.WrapPrefix(err, name, 0)
	}
	m, err := measure(v)
	if err != nil {
		return Measurement{}, err
	}
	m.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return m, nil
}

func writeCSV(w io.Writer, results []Measurement) {
	fmt.Fprintln(w, "name,json_bytes,tonl_bytes,bytes_saved,bytes_pct,json_tokens,tonl_tokens,tokens_pct")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%.1f,%d,%d,%.1f\n",
			r.Name, r.JSONBytes, r.TONLBytes, r.BytesSaved, r.BytesPct,
			r.JSONTokens, r.TONLTokens, r.TokensPct)
	}
}

func writeMarkdown(w io.Writer, results []Measurement) {
	var total Measurement
	for _, r := range results {
		total.JSONBytes += r.JSONBytes
		total.TONLBytes += r.TONLBytes
		total.JSONTokens += r.JSONTokens
		total.TONLTokens += r.TONLTokens
	}
	bytesSaved := total.JSONBytes - total.TONLBytes
	tokensSaved := total.JSONTokens - total.TONLTokens

	fmt.Fprintf(w, "# TONL Size Comparison\n\n")
	fmt.Fprintf(w, "| Metric | JSON (minified) | TONL | Savings |\n")
	fmt.Fprintf(w, "|--------|-----------------|------|---------|\n")
	fmt.Fprintf(w, "| **Bytes** | %d | %d | %d (%.1f%%) |\n",
		total.JSONBytes, total.TONLBytes, bytesSaved, percent(bytesSaved, total.JSONBytes))
	fmt.Fprintf(w, "| **Tokens** (est.) | ~%d | ~%d | ~%d (%.1f%%) |\n\n",
		total.JSONTokens, total.TONLTokens, tokensSaved, percent(tokensSaved, total.JSONTokens))

	sorted := make([]Measurement, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BytesPct > sorted[j].BytesPct
	})

	fmt.Fprintf(w, "## Details\n\n")
	fmt.Fprintf(w, "| Case | JSON Bytes | TONL Bytes | Bytes %% | JSON Tok | TONL Tok | Tok %% |\n")
	fmt.Fprintf(w, "|------|------------|------------|---------|----------|----------|-------|\n")
	for _, r := range sorted {
		fmt.Fprintf(w, "| %s | %d | %d | %.1f%% | %d | %d | %.1f%% |\n",
			truncateName(r.Name, 25), r.JSONBytes, r.TONLBytes, r.BytesPct,
			r.JSONTokens, r.TONLTokens, r.TokensPct)
	}

	var worse []string
	for _, r := range results {
		if r.BytesSaved < 0 {
			worse = append(worse, r.Name)
		}
	}
	if len(worse) > 0 {
		fmt.Fprintf(w, "\nJSON is smaller for: %s\n", strings.Join(worse, ", "))
	}
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
