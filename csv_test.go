package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteURLs(t *testing.T) {
	urls := []string{formURL, "https://example.com/", markedURL}

	on := rewriteURLs(urls, true)
	assert.Equal(t, []rewriteResult{
		{url: formURL, tracked: true, result: markedURL},
		{url: "https://example.com/", tracked: false, result: "https://example.com/"},
		{url: markedURL, tracked: true, result: markedURL},
	}, on)

	off := rewriteURLs(urls, false)
	assert.Equal(t, formURL, off[0].result)
	assert.Equal(t, formURL, off[2].result)
}

func TestCSVRewriteFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	output := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(input, []byte("url,notes\n"+formURL+",a\n\n https://example.com/ \n"), 0o644))

	source, err := newCSVSource(input)
	require.NoError(t, err)
	urls, err := source.extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{formURL, "https://example.com/"}, urls)

	sink, err := newCSVSink(output)
	require.NoError(t, err)
	require.NoError(t, sink.writeResults(rewriteURLs(urls, true)))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"URL", "Tracked", "Result"},
		{formURL, "✅", markedURL},
		{"https://example.com/", "❌", "https://example.com/"},
	}, rows)
}

func TestCSVSourceValidation(t *testing.T) {
	_, err := newCSVSource("")
	assert.Error(t, err)

	_, err = newCSVSource(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	source, err := newCSVSource(empty)
	require.NoError(t, err)
	_, err = source.extract(context.Background())
	assert.Error(t, err)
}

func TestCSVSourceStopsOnCancel(t *testing.T) {
	input := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("url\n"+formURL+"\n"), 0o644))

	source, err := newCSVSource(input)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = newCSVSource(t.TempDir())
	assert.Error(t, err, "directories are rejected")
}
