package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMergesAllFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv",
		"timestamp,price,size\n"+
			"2024-09-19 09:30:00.000,100.5,10\n"+
			"2024-09-19 09:30:01.000,100.6,11\n")
	writeFile(t, dir, "b.csv",
		"timestamp,price,size\n"+
			"2024-09-19 09:30:02.000,100.7,12\n")

	rows, err := New(dir, DefaultConfig(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	prices := make(map[string]bool)
	for _, row := range rows {
		prices[row.Price] = true
	}
	assert.True(t, prices["100.5"] && prices["100.6"] && prices["100.7"],
		"rows from every file must be merged")
}

func TestLoadSkipsHeaderAndShortRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ticks.csv",
		"timestamp,price,size\n"+
			"2024-09-19 09:30:00.000,100.5,10\n"+
			"2024-09-19 09:30:01.000,100.6\n"+ // two fields, dropped
			"2024-09-19 09:30:02.000,100.7,12\n")

	rows, err := New(dir, DefaultConfig(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLoadTrimsFieldWhitespace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ticks.csv",
		"timestamp,price,size\n"+
			"2024-09-19 09:30:00.000, 100.5 , 10 \n")

	rows, err := New(dir, DefaultConfig(), nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "100.5", rows[0].Price)
	assert.Equal(t, "10", rows[0].Size)
}

func TestLoadIgnoresNonCSVFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ticks.csv",
		"timestamp,price,size\n2024-09-19 09:30:00.000,100.5,10\n")
	writeFile(t, dir, "notes.txt", "not tick data")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.csv"), 0o755))

	rows, err := New(dir, DefaultConfig(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoadEmptyDirectory(t *testing.T) {
	rows, err := New(t.TempDir(), DefaultConfig(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), DefaultConfig(), nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to list data directory"))
}

func TestLoadManyFilesWithBoundedWorkers(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, dir, string(rune('a'+i))+".csv",
			"timestamp,price,size\n2024-09-19 09:30:00.000,100.5,10\n")
	}

	cfg := DefaultConfig()
	cfg.Workers = 3
	rows, err := New(dir, cfg, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 20)
}

func TestLoadCancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ticks.csv",
		"timestamp,price,size\n2024-09-19 09:30:00.000,100.5,10\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.FilesPerSecond = 1 // force the limiter to observe the context
	_, err := New(dir, cfg, nil).Load(ctx)
	require.Error(t, err)
}

func TestParseRowsMalformedCSV(t *testing.T) {
	// A bare quote makes the CSV reader fail; the loader surfaces the
	// error so the file is skipped rather than half-read.
	_, err := parseRows(strings.NewReader("timestamp,price,size\n\"broken\n"))
	assert.Error(t, err)
}
