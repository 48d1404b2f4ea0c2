package titleformat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(m map[string]string) Lookup {
	return LookupFunc(func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	})
}

func TestFormat(t *testing.T) {
	lookup := fields(map[string]string{
		"artist":     "Boards of Canada",
		"title":      "Roygbiv",
		"play_count": "12",
	})

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"optional present", "[%play_count%]", "12"},
		{"optional missing", "[%first_played%]", ""},
		{"field names ignore case", "[%PLAY_COUNT%]", "12"},
		{"missing outside section", "%album%", "?"},
		{"literal text", "%artist% - %title%", "Boards of Canada - Roygbiv"},
		{"section with literal", "%title%[ (%album%)]", "Roygbiv"},
		{"section keeps literal when resolved", "[plays: %play_count%]", "plays: 12"},
		{"quoted literal", "'[x]' %title%", "[x] Roygbiv"},
		{"escaped quote", "''%title%''", "'Roygbiv'"},
		{"nested sections", "[%artist%[ / %album%]]", "Boards of Canada"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Format(lookup))
			assert.Equal(t, tt.source, s.Source())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{
		"[%play_count%",
		"%play_count",
		"%%",
		"play]",
		"'unterminated",
		"$if(%rating%,yes)",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			assert.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, src, syntaxErr.Source)
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("[") })
	assert.NotPanics(t, func() { MustCompile("[%rating%]") })
}
