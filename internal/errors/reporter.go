package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a diagnostic.
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// Position locates a diagnostic in IR coordinates rather than source
// text: kernelc's core has no mandated textual format (the frontend is
// the builder API, not a parser), so there is no line/column to point
// at. Method and Block are always set once a diagnostic has left the
// builder; Value is the value ID the diagnostic concerns, or 0 when
// the diagnostic is about a block or method as a whole.
type Position struct {
	Method string
	Block  string
	Value  int
}

func (p Position) String() string {
	if p.Value != 0 {
		return fmt.Sprintf("%s:%s:%%%d", p.Method, p.Block, p.Value)
	}
	if p.Block != "" {
		return fmt.Sprintf("%s:%s", p.Method, p.Block)
	}
	return p.Method
}

// CompilerError is a structured diagnostic with suggestions and
// context, reported at a Kind rather than a numeric code.
type CompilerError struct {
	Level       ErrorLevel
	Kind        Kind
	Message     string
	Position    Position
	Snippet     string // the offending instruction or operation, rendered as text, if available
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

func (e CompilerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Position, e.Message)
}

// Suggestion is one suggested fix attached to a CompilerError.
type Suggestion struct {
	Message     string
	Replacement string
}

// ErrorReporter renders CompilerErrors with the Rust-style boxed,
// colored layout, substituting an IR coordinate and an optional
// rendered snippet for the source line a textual frontend would show.
type ErrorReporter struct {
	unit string // name of the compile unit the diagnostics belong to (e.g. a module or kernel name)
}

func NewErrorReporter(unit string) *ErrorReporter {
	return &ErrorReporter{unit: unit}
}

// FormatError formats a compiler error with Rust-like styling and suggestions.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var result strings.Builder

	levelColor := er.getLevelColor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err.Kind != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n",
			levelColor(string(err.Level)), err.Kind, err.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n",
			levelColor(string(err.Level)), err.Message))
	}

	indent := strings.Repeat(" ", er.markerWidth())
	result.WriteString(fmt.Sprintf("%s %s %s @ %s\n",
		indent, dim("-->"), er.unit, err.Position))

	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if err.Snippet != "" {
		result.WriteString(fmt.Sprintf("%s %s %s\n", bold(">"), dim("│"), err.Snippet))
		result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), er.createMarker(len(err.Snippet), err.Level)))
	}

	if len(err.Suggestions) > 0 {
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		for i, suggestion := range err.Suggestions {
			suggestionColor := color.New(color.FgCyan).SprintFunc()
			if i == 0 {
				result.WriteString(fmt.Sprintf("%s %s %s: %s\n",
					indent, suggestionColor("help"), suggestionColor("try"), suggestion.Message))
			} else {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("    "), suggestion.Message))
			}
			if suggestion.Replacement != "" {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("│"), suggestionColor(suggestion.Replacement)))
			}
		}
	}

	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), noteColor("note:"), note))
	}

	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), helpColor("help:"), err.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// createMarker underlines the full rendered snippet; without column
// information there is no narrower span to point at than the snippet itself.
func (er *ErrorReporter) createMarker(length int, level ErrorLevel) string {
	if length <= 0 {
		length = 1
	}
	var markerColor func(...interface{}) string
	switch level {
	case Warning:
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		markerColor = color.New(color.FgRed, color.Bold).SprintFunc()
	}
	return markerColor(strings.Repeat("^", length))
}

func (er *ErrorReporter) markerWidth() int { return 3 }
