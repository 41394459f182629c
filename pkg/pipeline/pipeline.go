// Package pipeline runs the complete parse → simulate → extract pipeline
// for a puzzle input. The CLI and the HTTP API both go through it, so they
// share validation, defaults, caching and logging.
//
// # Stages
//
//  1. Parse: split the input, build the initial stacks from the diagram
//  2. Simulate: fold the instructions over the stacks with the chosen crane
//  3. Extract: read the top crate of every stack
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, input, pipeline.Options{Policy: "batch"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Answer)
//
// Callers that only want the answer string, with errors rendered as text,
// use [Solve].
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratemover/pkg/cache"
	"github.com/matzehuels/cratemover/pkg/errors"
	"github.com/matzehuels/cratemover/pkg/supply"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultPolicy is the crane used when none is given.
	DefaultPolicy = supply.PolicySequential

	// DefaultHeaderMode reads the full stack number from the index row.
	DefaultHeaderMode = supply.HeaderToken

	// DefaultErrorMode fails the run on the first bad instruction.
	DefaultErrorMode = ErrorModeStrict
)

// ErrorMode selects what happens when an instruction cannot be applied.
type ErrorMode string

const (
	// ErrorModeStrict aborts the run on the first error.
	ErrorModeStrict ErrorMode = "strict"

	// ErrorModeLenient skips bad instructions and turns a bad diagram into an
	// empty answer.
	ErrorModeLenient ErrorMode = "lenient"
)

// ValidErrorModes is the set of accepted error modes.
var ValidErrorModes = map[string]bool{
	string(ErrorModeStrict):  true,
	string(ErrorModeLenient): true,
}

// Output formats for rendered results.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Policy     string `json:"policy,omitempty"`
	HeaderMode string `json:"header_mode,omitempty"`
	ErrorMode  string `json:"error_mode,omitempty"`
	Trace      bool   `json:"trace,omitempty"`   // Record a snapshot after every move
	Refresh    bool   `json:"refresh,omitempty"` // Ignore cached answers

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	policy    supply.Policy
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	RunID     string            `json:"run_id"`
	Policy    supply.Policy     `json:"policy"`
	Answer    string            `json:"answer"`
	Initial   supply.Stacks     `json:"initial"`
	Stacks    supply.Stacks     `json:"stacks"`
	Skipped   []int             `json:"skipped,omitempty"` // Instruction lines a lenient run skipped
	Defaulted bool              `json:"defaulted,omitempty"`
	Trace     []supply.Snapshot `json:"trace,omitempty"`
	InputHash string            `json:"input_hash"`
	Stats     Stats             `json:"stats"`
	CacheHit  bool              `json:"cache_hit"`
}

// Stats contains run statistics.
type Stats struct {
	StackCount   int           `json:"stack_count"`
	CrateCount   int           `json:"crate_count"`
	MoveCount    int           `json:"move_count"`
	ParseTime    time.Duration `json:"parse_time"`
	SimulateTime time.Duration `json:"simulate_time"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an output format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: text, json)", format)
	}
	return nil
}

// ValidateHeaderMode checks that a header mode is valid.
func ValidateHeaderMode(mode string) error {
	if !supply.ValidHeaderModes[mode] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid header_mode: %q (must be one of: token, digit)", mode)
	}
	return nil
}

// ValidateErrorMode checks that an error mode is valid.
func ValidateErrorMode(mode string) error {
	if !ValidErrorModes[mode] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid error_mode: %q (must be one of: strict, lenient)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Policy == "" {
		o.Policy = string(DefaultPolicy)
	}
	p, err := supply.ParsePolicy(o.Policy)
	if err != nil {
		return err
	}
	o.policy = p
	o.Policy = string(p)

	if o.HeaderMode == "" {
		o.HeaderMode = string(DefaultHeaderMode)
	}
	if err := ValidateHeaderMode(o.HeaderMode); err != nil {
		return err
	}
	if o.ErrorMode == "" {
		o.ErrorMode = string(DefaultErrorMode)
	}
	if err := ValidateErrorMode(o.ErrorMode); err != nil {
		return err
	}

	o.validated = true
	return nil
}

// Lenient reports whether the run skips bad instructions.
func (o *Options) Lenient() bool {
	return ErrorMode(o.ErrorMode) == ErrorModeLenient
}

// Crane returns the crane selected by the options. ValidateAndSetDefaults
// must have been called.
func (o *Options) Crane() (supply.Crane, error) {
	if !o.validated {
		return nil, fmt.Errorf("options not validated")
	}
	return supply.CraneFor(o.policy)
}

// WithPolicy returns a copy of o that runs policy p.
func (o Options) WithPolicy(p supply.Policy) Options {
	o.Policy = string(p)
	o.validated = false
	return o
}

// AnswerKeyOpts returns the cache key options for the answer under o.
func (o *Options) AnswerKeyOpts() cache.AnswerKeyOpts {
	return cache.AnswerKeyOpts{
		Policy:     o.Policy,
		HeaderMode: o.HeaderMode,
		Lenient:    o.Lenient(),
	}
}
