package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSection is returned when a required section is absent.
	ErrMissingSection = errors.New("section not specified")
	// ErrRead is returned when a file cannot be read.
	ErrRead = errors.New("file could not be loaded")
	// ErrTooLarge is returned when a file exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrQuote is returned when a generator filename is not quoted.
	ErrQuote = errors.New("generator filenames need to be enclosed in double-quotes")
	// ErrStepFields is returned when a step lacks generator id, inputs or
	// outputs.
	ErrStepFields = errors.New("required parameters not specified (generator id, inputs and outputs)")
	// ErrParentheses is returned when inputs or outputs are not
	// parenthesised.
	ErrParentheses = errors.New("parameters need to be surrounded by parentheses")
	// ErrBuffer is returned when a buffer id is malformed.
	ErrBuffer = errors.New("invalid buffer id")
	// ErrLiteral is returned when a literal is not a number.
	ErrLiteral = errors.New("invalid number")
	// ErrLiteralOutput is returned when an output is bound to a literal.
	ErrLiteralOutput = errors.New("outputs must be buffers")
	// ErrRouteFields is returned when an output line is not a channel
	// name and a buffer id.
	ErrRouteFields = errors.New("outputs need to be defined by a channel name and a buffer id")
	// ErrChannel is returned for channels other than left and right.
	ErrChannel = errors.New("unknown channel")
	// ErrParameterFields is returned when a parameter line is not a step,
	// an index and a value.
	ErrParameterFields = errors.New("parameters need to be defined by a step, an index and a value")
	// ErrStep is returned when a parameter refers to a missing step.
	ErrStep = errors.New("unknown step")
	// ErrUnknownGenerator is returned when a step refers to an unknown
	// generator id.
	ErrUnknownGenerator = errors.New("unknown generator")
	// ErrArity is returned when number of step parameters differs from
	// declared counts of the generator.
	ErrArity = errors.New("wrong number of parameters")
	// ErrUnknownBuffer is returned when an output selects a buffer no
	// step uses.
	ErrUnknownBuffer = errors.New("buffer not used by any step")
)

// Error is a problem found at a line of a section.
type Error struct {
	Section string
	Line    int
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Section == "":
		return e.Err.Error()
	case e.Line == 0:
		return fmt.Sprintf("[%s]: %v", e.Section, e.Err)
	default:
		return fmt.Sprintf("[%s] line %d: %v", e.Section, e.Line, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errors is a list of problems collected from one file.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap allows errors.Is and errors.As to match any collected error.
func (e Errors) Unwrap() []error {
	return e
}
