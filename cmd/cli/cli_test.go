package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arandaschimpf/claude-review/internal/core"
)

func testKeys() []*core.APIKey {
	creator := "Master Key"
	created := time.Date(2026, 2, 3, 4, 5, 0, 0, time.UTC)
	return []*core.APIKey{
		{ID: 1, Key: "k-master", Name: "Master Key", IsAdmin: true, CreatedAt: created},
		{ID: 2, Key: "k-ci", Name: "ci", CreatedAt: created, CreatedBy: &creator},
	}
}

func TestRenderKeys(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderKeys(&buf, testKeys(), "json"))

		var got []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "k-master", got[0]["key"])
		assert.Equal(t, true, got[0]["isAdmin"])
		assert.Equal(t, "Master Key", got[1]["createdBy"])
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderKeys(&buf, testKeys(), "yaml"))

		var got []map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "ci", got[1]["name"])
		assert.Equal(t, false, got[1]["isAdmin"])
	})

	t.Run("Table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderKeys(&buf, testKeys(), "table"))

		out := buf.String()
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "k-ci")
		assert.Contains(t, out, "03 Feb 26 04:05 UTC")
	})

	t.Run("Empty JSON is a list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderKeys(&buf, nil, "json"))
		assert.JSONEq(t, "[]", buf.String())
	})

	t.Run("Unknown format", func(t *testing.T) {
		assert.Error(t, renderKeys(&bytes.Buffer{}, testKeys(), "xml"))
	})
}

func TestValidateURL(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NoError(t, validateURL(&buf, "https://github.com/octo/hello/pull/9"))
	assert.Equal(t, "✓ accepted octo/hello #9\n", buf.String())

	buf.Reset()
	err := validateURL(&buf, "http://github.com/octo/hello/pull/9")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, "✗ rejected: Only HTTPS URLs are allowed\n", buf.String())
}
