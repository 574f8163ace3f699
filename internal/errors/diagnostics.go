package errors

import "fmt"

// DiagnosticBuilder provides a fluent interface for building a
// CompilerError, mirroring the teacher's semantic-error builder but
// keyed on a Kind instead of a numeric frontend error code.
type DiagnosticBuilder struct {
	err CompilerError
}

// NewDiagnostic starts an error-level diagnostic of the given kind at pos.
func NewDiagnostic(kind Kind, message string, pos Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Error, Kind: kind, Message: message, Position: pos}}
}

// NewDiagnosticWarning starts a warning-level diagnostic.
func NewDiagnosticWarning(kind Kind, message string, pos Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Warning, Kind: kind, Message: message, Position: pos}}
}

func (b *DiagnosticBuilder) WithSnippet(snippet string) *DiagnosticBuilder {
	b.err.Snippet = snippet
	return b
}

func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *DiagnosticBuilder) WithReplacement(message, replacement string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message, Replacement: replacement})
	return b
}

func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// The constructors below cover the seven kinds a compile or launch can
// fail with (§7). Each takes just the facts that kind's message needs;
// callers chain WithNote/WithSuggestion/WithHelp for anything extra.

func InvalidIRError(pos Position, reason string) *DiagnosticBuilder {
	return NewDiagnostic(InvalidIR, reason, pos)
}

func UnsupportedOperationError(pos Position, backend, op string) *DiagnosticBuilder {
	msg := fmt.Sprintf("%s has no legalization for %q", backend, op)
	return NewDiagnostic(UnsupportedOperation, msg, pos)
}

func IntrinsicUnresolvedError(pos Position, name string) *DiagnosticBuilder {
	msg := fmt.Sprintf("call to %q was not resolved by any registered intrinsic", name)
	return NewDiagnostic(IntrinsicUnresolved, msg, pos).
		WithSuggestion(fmt.Sprintf("register an intrinsic entry for %q, or confirm it is available at the requested compute tier", name))
}

func DeviceUnavailableError(accelerator, reason string) *DiagnosticBuilder {
	msg := fmt.Sprintf("accelerator %q is unavailable: %s", accelerator, reason)
	return NewDiagnostic(DeviceUnavailable, msg, Position{})
}

func AllocationFailedError(bytes int64, pool string) *DiagnosticBuilder {
	msg := fmt.Sprintf("could not allocate %d bytes from %s", bytes, pool)
	return NewDiagnostic(AllocationFailed, msg, Position{})
}

func LaunchFailedError(kernel, reason string) *DiagnosticBuilder {
	msg := fmt.Sprintf("launch of %q rejected by driver: %s", kernel, reason)
	return NewDiagnostic(LaunchFailed, msg, Position{})
}

func CanceledError(op string) *DiagnosticBuilder {
	return NewDiagnostic(Canceled, fmt.Sprintf("%s canceled", op), Position{})
}
