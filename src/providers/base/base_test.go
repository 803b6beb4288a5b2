package base

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"openai", "Anthropic", " cohere ", "GEMINI"} {
		_, ok := ParseKind(in)
		assert.True(t, ok, in)
	}
	k, ok := ParseKind("gemini")
	require.True(t, ok)
	assert.Equal(t, Gemini, k)

	_, ok = ParseKind("mistral")
	assert.False(t, ok)
	_, ok = ParseKind("")
	assert.False(t, ok)
}

func TestSliceStreamOrderAndClose(t *testing.T) {
	t.Parallel()

	closed := 0
	s := NewSliceStream([]Chunk{
		{Label: "output", Data: []byte(`1`)},
		{Label: "output", Data: []byte(`2`)},
	}, func() error { closed++; return nil })

	c, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", string(c.Data))
	c, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "2", string(c.Data))
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, closed)
}

func TestCollect(t *testing.T) {
	t.Parallel()

	got, err := Collect(NewSliceStream([]Chunk{{Label: "a"}, {Label: "b"}}, nil))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Label)
}
