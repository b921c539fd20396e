package config

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Section names.
const (
	Generators = "generators"
	Pipeline   = "pipeline"
	Output     = "output"
	Parameters = "parameters"
)

// Channel names of the output section.
const (
	Left  = "left"
	Right = "right"
)

// required sections in the order they are reported
var required = []string{Pipeline, Output, Generators}

type (
	// File is a parsed configuration file.
	File struct {
		Generators []Source
		Steps      []Step
		Outputs    []Route
		Parameters []Parameter
	}

	// Source is a generator source listed in the generators section.
	Source struct {
		Line int
		Path string
		Text string
	}

	// Step is a line of the pipeline section.
	Step struct {
		Line    int
		ID      string
		Inputs  []Value
		Outputs []Value
	}

	// Value is a parameter of a step: a buffer id or a literal.
	Value struct {
		IsBuffer bool
		Buffer   int
		Literal  float64
	}

	// Route selects a buffer for a channel.
	Route struct {
		Line    int
		Channel string
		Buffer  int
	}

	// Parameter sets a generator parameter of a step. Step is the index of
	// the step in the pipeline section.
	Parameter struct {
		Line  int
		Step  int
		Index int
		Value float64
	}
)

func (v Value) String() string {
	if v.IsBuffer {
		return fmt.Sprintf("#%d", v.Buffer)
	}
	return strconv.FormatFloat(v.Literal, 'g', -1, 64)
}

// Parse parses text of a configuration file. Read returns text of a
// generator source by its path. Every problem is collected into Errors.
// When a required section is missing nothing else is parsed.
func Parse(text string, read func(path string) (string, error)) (*File, error) {
	sections := sections(text)
	var errs Errors
	for _, name := range required {
		if _, ok := sections[name]; !ok {
			errs = append(errs, &Error{Section: name, Err: ErrMissingSection})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	f := File{}
	for _, l := range sections[Generators] {
		path, err := unquote(l.text)
		if err != nil {
			errs = append(errs, l.error(Generators, err))
			continue
		}
		src, err := read(path)
		if err != nil {
			errs = append(errs, l.error(Generators, fmt.Errorf("%w: %v", ErrRead, err)))
			continue
		}
		f.Generators = append(f.Generators, Source{Line: l.number, Path: path, Text: src})
	}
	for _, l := range sections[Pipeline] {
		s, err := parseStep(l)
		if err != nil {
			errs = append(errs, l.error(Pipeline, err))
			continue
		}
		f.Steps = append(f.Steps, s)
	}
	for _, l := range sections[Output] {
		r, err := parseRoute(l)
		if err != nil {
			errs = append(errs, l.error(Output, err))
			continue
		}
		f.Outputs = append(f.Outputs, r)
	}
	for _, l := range sections[Parameters] {
		p, err := parseParameter(l)
		if err != nil {
			errs = append(errs, l.error(Parameters, err))
			continue
		}
		f.Parameters = append(f.Parameters, p)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &f, nil
}

type line struct {
	number int
	text   string
}

func (l line) error(section string, err error) *Error {
	return &Error{Section: section, Line: l.number, Err: err}
}

// sections splits text into non-empty lines of bracketed sections. Lines
// before the first section are ignored. Repeated sections are merged.
func sections(text string) map[string][]line {
	result := make(map[string][]line)
	current := ""
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(nil, maxFileSize)
	for n := 1; scanner.Scan(); n++ {
		t := strings.TrimSpace(scanner.Text())
		if t == "" {
			continue
		}
		if len(t) > 2 && t[0] == '[' && t[len(t)-1] == ']' {
			current = strings.TrimSpace(t[1 : len(t)-1])
			if _, ok := result[current]; !ok {
				result[current] = nil
			}
			continue
		}
		if current == "" {
			continue
		}
		result[current] = append(result[current], line{number: n, text: t})
	}
	return result
}

// fields splits s on whitespace. Bracketed groups are one field.
func fields(s string) []string {
	var (
		result []string
		depth  int
		start  = -1
	)
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ' ', '\t', '\r', '\n':
			if depth == 0 {
				if start >= 0 {
					result = append(result, s[start:i])
					start = -1
				}
				continue
			}
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		result = append(result, s[start:])
	}
	return result
}

func unquote(s string) (string, error) {
	if len(s) <= 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", ErrQuote
	}
	return filepath.FromSlash(s[1 : len(s)-1]), nil
}

// group returns fields of a parenthesised value.
func group(s string) ([]string, error) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("%w: %s", ErrParentheses, s)
	}
	return fields(s[1 : len(s)-1]), nil
}

func parseStep(l line) (Step, error) {
	f := fields(l.text)
	if len(f) != 3 {
		return Step{}, ErrStepFields
	}
	s := Step{Line: l.number, ID: f[0]}
	inputs, err := group(f[1])
	if err != nil {
		return Step{}, fmt.Errorf("inputs: %w", err)
	}
	outputs, err := group(f[2])
	if err != nil {
		return Step{}, fmt.Errorf("outputs: %w", err)
	}
	for _, raw := range inputs {
		v, err := parseValue(raw)
		if err != nil {
			return Step{}, err
		}
		s.Inputs = append(s.Inputs, v)
	}
	for _, raw := range outputs {
		v, err := parseValue(raw)
		if err != nil {
			return Step{}, err
		}
		if !v.IsBuffer {
			return Step{}, fmt.Errorf("%w: %s", ErrLiteralOutput, raw)
		}
		s.Outputs = append(s.Outputs, v)
	}
	return s, nil
}

func parseValue(s string) (Value, error) {
	if strings.HasPrefix(s, "#") {
		b, err := parseBuffer(s)
		if err != nil {
			return Value{}, err
		}
		return Value{IsBuffer: true, Buffer: b}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s", ErrLiteral, s)
	}
	return Value{Literal: v}, nil
}

// parseBuffer parses buffer id. The leading # is optional.
func parseBuffer(s string) (int, error) {
	b, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 31)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrBuffer, s)
	}
	return int(b), nil
}

func parseRoute(l line) (Route, error) {
	f := fields(l.text)
	if len(f) != 2 {
		return Route{}, ErrRouteFields
	}
	if f[0] != Left && f[0] != Right {
		return Route{}, fmt.Errorf("%w: %s", ErrChannel, f[0])
	}
	b, err := parseBuffer(f[1])
	if err != nil {
		return Route{}, err
	}
	return Route{Line: l.number, Channel: f[0], Buffer: b}, nil
}

func parseParameter(l line) (Parameter, error) {
	f := fields(l.text)
	if len(f) != 3 {
		return Parameter{}, ErrParameterFields
	}
	step, err := strconv.Atoi(f[0])
	if err != nil || step < 0 {
		return Parameter{}, fmt.Errorf("%w: %s", ErrStep, f[0])
	}
	index, err := strconv.Atoi(f[1])
	if err != nil {
		return Parameter{}, fmt.Errorf("%w: %s", ErrLiteral, f[1])
	}
	v, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return Parameter{}, fmt.Errorf("%w: %s", ErrLiteral, f[2])
	}
	return Parameter{Line: l.number, Step: step, Index: index, Value: v}, nil
}
