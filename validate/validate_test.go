package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePreset(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func errorsOnly(result ValidationResult) []string {
	var out []string
	for _, e := range result.Errors {
		if !strings.HasPrefix(e, "✓") {
			out = append(out, e)
		}
	}
	return out
}

func TestValidateConfig_ValidPreset(t *testing.T) {
	path := writePreset(t, t.TempDir(), "fast.json", `{
		"name": "fast",
		"description": "Quick clock",
		"tick_interval_ms": 40,
		"auto_lock": true,
		"seed": 9,
		"first_kind": "T"
	}`)

	result := validateConfig(path)
	assert.True(t, result.Valid, result.Errors)
	assert.Equal(t, "fast.json", result.File)
	assert.Empty(t, errorsOnly(result))
	assert.Contains(t, result.Errors, "✓ Tick interval: 40ms")
	assert.Contains(t, result.Errors, "✓ First piece: T")
	assert.Contains(t, result.Errors, "✓ Auto-lock enabled")
	assert.Contains(t, result.Errors, "✓ Seeded piece sequence (9)")
}

func TestValidateConfig_Problems(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		body     string
		contains string
	}{
		{"invalid json", "broken.json", `{"name": "broken",`, "Invalid JSON"},
		{"unknown field", "extra.json", `{"name": "extra", "grid_size": 5}`, "Invalid JSON"},
		{"missing name", "nameless.json", `{"tick_interval_ms": 100}`, "name is required"},
		{"interval too fast", "quick.json", `{"name": "quick", "tick_interval_ms": 1}`, "tick_interval_ms must be between"},
		{"interval too slow", "slow.json", `{"name": "slow", "tick_interval_ms": 60000}`, "tick_interval_ms must be between"},
		{"bad first kind", "weird.json", `{"name": "weird", "first_kind": "Q"}`, "first_kind"},
		{"name mismatch", "alpha.json", `{"name": "beta"}`, `does not match file name "alpha"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writePreset(t, t.TempDir(), tt.file, tt.body))
			assert.False(t, result.Valid)
			assert.Contains(t, strings.Join(errorsOnly(result), "\n"), tt.contains)
		})
	}
}

func TestValidateConfig_ReportsEveryProblem(t *testing.T) {
	path := writePreset(t, t.TempDir(), "multi.json", `{"tick_interval_ms": 1, "first_kind": "X"}`)

	result := validateConfig(path)
	assert.False(t, result.Valid)
	assert.Len(t, errorsOnly(result), 3)
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "Failed to read file")
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "b.json", `{"name": "b"}`)
	writePreset(t, dir, "a.json", `{"name": "a", "tick_interval_ms": 1}`)
	writePreset(t, dir, "notes.txt", "ignored")

	results, err := validateDir(dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.json", results[0].File)
	assert.False(t, results[0].Valid)
	assert.True(t, results[1].Valid)

	_, err = validateDir(t.TempDir())
	assert.Error(t, err)
}

func TestShippedPresetsAreValid(t *testing.T) {
	if _, err := os.Stat("../configs"); os.IsNotExist(err) {
		t.Skip("configs directory not found")
	}
	results, err := validateDir("../configs")
	require.NoError(t, err)
	for _, result := range results {
		assert.True(t, result.Valid, "%s: %v", result.File, result.Errors)
	}
}
