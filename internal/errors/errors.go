// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the graph
// updater CLI: a UserError carrying what/why/how-to-fix, and the exit
// codes and error-kind report the pipeline's error handling design
// requires. Only Configuration and a persistent Writer failure are
// fatal; every other kind is counted and summarized in the final
// report rather than aborting the run.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes. Among the error kinds, only Configuration and persistent
// Writer failures cause a non-zero exit; every other kind is summarized
// as a count. ExitInternal is used for unexpected errors that are not a
// UserError.
const (
	ExitSuccess       = 0
	ExitConfiguration = 1
	ExitWriter        = 2
	ExitInternal      = 10
)

// Kind classifies an error by the pipeline stage that produced it.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindDiscovery     Kind = "discovery"
	KindParse         Kind = "parse"
	KindResolve       Kind = "resolve"
	KindAnalyzer      Kind = "analyzer"
	KindWriter        Kind = "writer"
	KindCancellation  Kind = "cancellation"
)

// UserError carries structured context for an end user: what
// happened, why, and how to fix it.
type UserError struct {
	Kind     Kind
	Message  string
	Cause    string
	Fix      string
	ExitCode int
	Err      error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

// NewConfigurationError builds a fatal Configuration error (bad path,
// conflicting flags)
func NewConfigurationError(msg, cause, fix string, err error) *UserError {
	return &UserError{Kind: KindConfiguration, Message: msg, Cause: cause, Fix: fix, ExitCode: ExitConfiguration, Err: err}
}

// NewWriterError builds a Writer error. Transient transport failures
// are retried by pkg/graph before ever reaching here; only a
// persistent failure after the retry budget is exhausted should be
// wrapped as fatal
func NewWriterError(msg, cause, fix string, err error) *UserError {
	return &UserError{Kind: KindWriter, Message: msg, Cause: cause, Fix: fix, ExitCode: ExitWriter, Err: err}
}

// NewInternalError builds an error for unexpected program bugs.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{Kind: KindConfiguration, Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInternal, Err: err}
}

// Report accumulates non-fatal error counts by kind for Discovery,
// Parse, Resolve, Analyzer and Cancellation kinds, which the pipeline
// summarizes rather than aborts on
type Report struct {
	counts map[Kind]int
	lines  []string
}

// NewReport builds an empty error Report.
func NewReport() *Report {
	return &Report{counts: make(map[Kind]int)}
}

// Record adds one occurrence of kind to the report, with a short
// human-readable line for later display.
func (r *Report) Record(kind Kind, line string) {
	r.counts[kind]++
	if line != "" {
		r.lines = append(r.lines, fmt.Sprintf("[%s] %s", kind, line))
	}
}

// Count returns how many occurrences of kind were recorded.
func (r *Report) Count(kind Kind) int { return r.counts[kind] }

// Total returns the sum of every recorded kind's count.
func (r *Report) Total() int {
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

// Lines returns every recorded detail line, in recording order.
func (r *Report) Lines() []string { return r.lines }

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a colored, human-readable rendering of the error.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// ErrorJSON is the JSON-serializable shape of a UserError.
type ErrorJSON struct {
	Kind     Kind   `json:"kind"`
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the error to its JSON-serializable form.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{Kind: e.Kind, Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.ExitCode}
}

// FatalError prints err and exits with its exit code. Never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
