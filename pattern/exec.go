package pattern

import (
	"io"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/sirupsen/logrus"
)

// ExecOptions configures compilation and matching.
type ExecOptions struct {
	// Timeout bounds a single match. The engine aborts a match that runs
	// past it and the elapsed time is checked again afterwards.
	Timeout time.Duration

	// LargeInput is the input length above which the match cost is
	// estimated up front. Inputs estimated to exceed Timeout are refused
	// without running, unless the pattern has no quantifiers or groups.
	LargeInput int

	Validate ValidateOptions

	// Logger receives a warning for every security fault. Nil discards.
	Logger logrus.FieldLogger
}

const (
	DefaultTimeout    = 100 * time.Millisecond
	DefaultLargeInput = 10_000

	// estimated matching cost per thousand input characters
	costPerKiloChar = 10 * time.Millisecond
)

// DefaultExecOptions returns the default execution budget.
func DefaultExecOptions() ExecOptions {
	return ExecOptions{
		Timeout:    DefaultTimeout,
		LargeInput: DefaultLargeInput,
		Validate:   DefaultValidateOptions(),
	}
}

func (o ExecOptions) withDefaults() ExecOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.LargeInput <= 0 {
		o.LargeInput = DefaultLargeInput
	}
	o.Validate = o.Validate.withDefaults()
	if o.Logger == nil {
		o.Logger = discardLogger
	}
	return o
}

var discardLogger = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ============================================================
// Matcher
// ============================================================

// Matcher is a validated, compiled pattern. It is safe for concurrent use.
type Matcher struct {
	pattern string
	trivial bool // no quantifiers or groups, linear time
	re      *regexp2.Regexp
	opts    ExecOptions
	now     func() time.Time
}

// Compile validates pattern and compiles it.
func Compile(pattern string, opts ExecOptions) (*Matcher, error) {
	opts = opts.withDefaults()
	if err := Validate(pattern, opts.Validate); err != nil {
		return nil, audit(opts.Logger, err)
	}
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, audit(opts.Logger, &SecurityError{
			Rule:    RuleInvalidSyntax,
			Pattern: pattern,
			Message: err.Error(),
		})
	}
	re.MatchTimeout = opts.Timeout
	return &Matcher{pattern: pattern, trivial: IsTrivial(pattern), re: re, opts: opts, now: time.Now}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, opts ExecOptions) *Matcher {
	m, err := Compile(pattern, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern returns the source text.
func (m *Matcher) Pattern() string { return m.pattern }

// Match reports whether input contains a match of the pattern.
func (m *Matcher) Match(input string) (bool, error) {
	n := len([]rune(input))
	if n > m.opts.LargeInput && !m.trivial {
		estimate := time.Duration(float64(n) / 1000 * float64(costPerKiloChar))
		if estimate > m.opts.Timeout {
			return false, audit(m.opts.Logger, &SecurityError{
				Rule:        RuleInputTooLarge,
				Pattern:     m.pattern,
				Message:     "input too large for the match budget",
				Limit:       int64(m.opts.LargeInput),
				Actual:      int64(n),
				InputLength: n,
			})
		}
	}

	start := m.now()
	ok, err := m.re.MatchString(input)
	elapsed := m.now().Sub(start)
	if err != nil || elapsed > m.opts.Timeout {
		msg := "match exceeded its time budget"
		if err != nil {
			msg = "match aborted: " + err.Error()
		}
		return false, audit(m.opts.Logger, &SecurityError{
			Rule:        RuleTimeout,
			Pattern:     m.pattern,
			Message:     msg,
			Limit:       m.opts.Timeout.Milliseconds(),
			Actual:      elapsed.Milliseconds(),
			InputLength: n,
		})
	}
	return ok, nil
}

// Match compiles pattern and matches it once against input.
func Match(pattern, input string, opts ExecOptions) (bool, error) {
	m, err := Compile(pattern, opts)
	if err != nil {
		return false, err
	}
	return m.Match(input)
}

func audit(log logrus.FieldLogger, err error) error {
	se, ok := err.(*SecurityError)
	if !ok {
		return err
	}
	log.WithFields(logrus.Fields{
		"rule":           string(se.Rule),
		"pattern_length": len(se.Pattern),
		"limit":          se.Limit,
		"actual":         se.Actual,
		"input_length":   se.InputLength,
	}).Warn("pattern rejected")
	return err
}
