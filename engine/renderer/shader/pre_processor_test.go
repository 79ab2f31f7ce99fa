package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessExpandsIncludes(t *testing.T) {
	src := "//@sph:include kernels\nfn f() -> f32 { return poly6(0.0); }\n"
	out, err := NewPreProcessor().Process(src)
	require.NoError(t, err)

	assert.Contains(t, out, "POLY6_COEFF", "kernel constants injected")
	assert.Contains(t, out, "fn f() -> f32", "surrounding source preserved")
	assert.NotContains(t, out, "@sph:include")
}

func TestProcessLeavesOrdinarySourceAlone(t *testing.T) {
	src := "// a plain comment\n@group(0) @binding(0) var<uniform> u: U;\n"
	out, err := NewPreProcessor().Process(src)
	require.NoError(t, err)
	assert.Equal(t, src, out, "no annotations means no rewriting")
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown key",
			src:  "//@sph:include nonsense",
			want: "unknown @sph:include key",
		},
		{
			name: "missing key",
			src:  "//@sph:include",
			want: "malformed annotation",
		},
		{
			name: "trailing garbage",
			src:  "//@sph:include particle extra",
			want: "malformed annotation",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process("fn g() {}\n" + tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Contains(t, err.Error(), "line 2", "errors carry the source line")
		})
	}
}

func TestProcessRegisteredSnippets(t *testing.T) {
	keys := []IncludeKey{IncludeParticle, IncludeKernels, IncludeGrid, IncludeParams, IncludeCamera}
	for _, key := range keys {
		out, err := NewPreProcessor().Process("//@sph:include " + string(key))
		require.NoError(t, err, "key %q", key)
		assert.False(t, strings.TrimSpace(out) == "", "key %q injects a non-empty snippet", key)
	}
}
