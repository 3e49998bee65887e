package verrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindCFCompliance:       "CFComplianceError",
		KindIncompatibleInputs: "IncompatibleInputsError",
		KindDataReading:        "DataReadingError",
		KindConfiguration:      "ConfigurationError",
		KindInternal:           "InternalError",
		Kind(99):                "UnknownError",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

func TestErrorMessageWithAndWithoutCause(t *testing.T) {
	bare := CFCompliance("axis %q not found", "Z")
	require.EqualError(t, bare, `CFComplianceError: axis "Z" not found`)

	wrapped := bare.Wrap(fmt.Errorf("underlying read failure"))
	require.EqualError(t, wrapped, "CFComplianceError: axis \"Z\" not found: underlying read failure")
	assert.Equal(t, KindCFCompliance, wrapped.Kind())
}

func TestIsUnwrapsStandardWrapping(t *testing.T) {
	root := DataReading("glob %q matched nothing", "*.nc")
	outer := fmt.Errorf("engine: processing failed: %w", root)

	assert.True(t, Is(outer, KindDataReading))
	assert.False(t, Is(outer, KindConfiguration))
}

func TestIsOnNilOrForeignError(t *testing.T) {
	assert.False(t, Is(nil, KindInternal))
	assert.False(t, Is(fmt.Errorf("plain error"), KindInternal))
}

func TestWrapPreservesKind(t *testing.T) {
	e := Configuration("missing flag")
	w := e.Wrap(fmt.Errorf("boom"))
	assert.Equal(t, KindConfiguration, w.Kind())
	assert.Equal(t, e.kind, w.kind)
}
