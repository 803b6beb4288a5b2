package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCatalogArray(t *testing.T) {
	t.Parallel()

	raw := []byte(`[
		{"name":"list_candidates","description":"List ATS candidates","parameters":{"type":"object","properties":{"limit":{"type":"number"}}}},
		{"name":"get_contact","inputSchema":{"type":"object","required":["id"]}},
		{"name":"ping"}
	]`)
	got, err := DecodeCatalog(raw)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "list_candidates", got[0].Name)
	assert.Equal(t, "List ATS candidates", got[0].Description)
	assert.JSONEq(t, `{"type":"object","properties":{"limit":{"type":"number"}}}`, string(got[0].Schema))

	assert.Equal(t, "get_contact", got[1].Name)
	assert.JSONEq(t, `{"type":"object","required":["id"]}`, string(got[1].Schema))

	assert.Equal(t, "ping", got[2].Name)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(got[2].Schema))
}

func TestDecodeCatalogWrapped(t *testing.T) {
	t.Parallel()

	got, err := DecodeCatalog([]byte(`{"tools":[{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object"}}}]}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Name)
	assert.Equal(t, "d", got[0].Description)
	assert.JSONEq(t, `{"type":"object"}`, string(got[0].Schema))
}

func TestDecodeCatalogErrors(t *testing.T) {
	t.Parallel()

	_, err := DecodeCatalog([]byte(`{not json`))
	require.Error(t, err)

	_, err = DecodeCatalog([]byte(`{"count":3}`))
	require.Error(t, err)

	_, err = DecodeCatalog([]byte(`[{"description":"nameless"}]`))
	require.Error(t, err)
}

func TestDecodeCatalogEmpty(t *testing.T) {
	t.Parallel()

	got, err := DecodeCatalog([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}
