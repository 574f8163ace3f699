package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorReporter(t *testing.T) {
	reporter := NewErrorReporter("reduce_kernel")
	pos := Position{Method: "reduce", Block: "loop_body", Value: 42}

	err := IntrinsicUnresolvedError(pos, "warp_shuffle_xyz").Build()
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+string(IntrinsicUnresolved)+"]")
	assert.Contains(t, formatted, "warp_shuffle_xyz")
	assert.Contains(t, formatted, "reduce_kernel")
	assert.Contains(t, formatted, "reduce:loop_body:%42")
	assert.Contains(t, formatted, "help")
	assert.Contains(t, formatted, "register an intrinsic entry")
}

func TestInvalidIRError(t *testing.T) {
	pos := Position{Method: "scale", Block: "entry", Value: 3}
	err := InvalidIRError(pos, "phi has no source for predecessor \"left\"").
		WithNote("every predecessor of a block with a phi must supply a source").
		Build()

	assert.Equal(t, InvalidIR, err.Kind)
	assert.Contains(t, err.Message, "phi has no source")
	assert.Len(t, err.Notes, 1)
}

func TestUnsupportedOperationError(t *testing.T) {
	pos := Position{Method: "clz", Block: "entry"}
	err := UnsupportedOperationError(pos, "ptx", "count_leading_zeros").
		WithSuggestion("lower count_leading_zeros before selecting the ptx backend").
		Build()

	assert.Equal(t, UnsupportedOperation, err.Kind)
	assert.Contains(t, err.Message, "ptx")
	assert.Contains(t, err.Message, "count_leading_zeros")
	assert.Len(t, err.Suggestions, 1)
}

func TestDeviceUnavailableError(t *testing.T) {
	err := DeviceUnavailableError("ptx", "no CUDA-capable device present").Build()
	assert.Equal(t, DeviceUnavailable, err.Kind)
	assert.Contains(t, err.Message, "ptx")
	assert.Contains(t, err.Message, "no CUDA-capable device present")
	assert.True(t, err.Kind.Fatal())
}

func TestAllocationFailedError(t *testing.T) {
	err := AllocationFailedError(4096, "host memory pool").Build()
	assert.Equal(t, AllocationFailed, err.Kind)
	assert.Contains(t, err.Message, "4096 bytes")
	assert.Contains(t, err.Message, "host memory pool")
}

func TestLaunchFailedError(t *testing.T) {
	err := LaunchFailedError("reduce_kernel", "grid dimension exceeds device limit").Build()
	assert.Equal(t, LaunchFailed, err.Kind)
	assert.Contains(t, err.Message, "reduce_kernel")
}

func TestCanceledError(t *testing.T) {
	err := CanceledError("synchronize").Build()
	assert.Equal(t, Canceled, err.Kind)
	assert.False(t, err.Kind.Fatal())
}

func TestWarningFormatting(t *testing.T) {
	reporter := NewErrorReporter("pack_kernel")
	pos := Position{Method: "pack", Block: "entry", Value: 7}
	err := NewDiagnosticWarning(UnsupportedOperation, "value %7 is unused after constant folding", pos).Build()
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning["+string(UnsupportedOperation)+"]")
	assert.Contains(t, formatted, "unused after constant folding")
}

func TestErrorMarkerCreation(t *testing.T) {
	reporter := NewErrorReporter("test")
	marker := reporter.createMarker(8, Error)
	assert.Equal(t, 8, strings.Count(marker, "^"))
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "reduce", Position{Method: "reduce"}.String())
	assert.Equal(t, "reduce:entry", Position{Method: "reduce", Block: "entry"}.String())
	assert.Equal(t, "reduce:entry:%3", Position{Method: "reduce", Block: "entry", Value: 3}.String())
}

func TestErrorLevels(t *testing.T) {
	reporter := NewErrorReporter("test")
	pos := Position{Method: "m"}

	errorErr := CompilerError{Level: Error, Message: "test error", Position: pos}
	warningErr := CompilerError{Level: Warning, Message: "test warning", Position: pos}

	assert.Contains(t, reporter.FormatError(errorErr), "error:")
	assert.Contains(t, reporter.FormatError(warningErr), "warning:")
}

func TestCompilerErrorImplementsError(t *testing.T) {
	err := InvalidIRError(Position{Method: "m", Block: "b"}, "bad value").Build()
	var _ error = err
	assert.Contains(t, err.Error(), "bad value")
	assert.Contains(t, err.Error(), "m:b")
}
