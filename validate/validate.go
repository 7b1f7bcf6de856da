// Command validate checks every preset file in a directory and reports the
// problems found. It exits with a non-zero status if any preset is invalid.
//
// Usage:
//
//	go run ./validate [dir]
//
// The directory defaults to ../configs.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/blockfall/game/config"
)

// ValidationResult holds the outcome of validating one preset file. Info lines
// are prefixed with "✓" and are only printed for valid presets.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig decodes a preset strictly and applies the same checks the
// server uses when loading or saving presets.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{File: filepath.Base(filePath), Valid: true}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var preset config.Preset
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&preset); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := config.ValidatePreset(&preset); err != nil {
		msg := strings.TrimPrefix(err.Error(), config.ErrInvalidConfig.Error()+": ")
		for _, problem := range strings.Split(msg, "; ") {
			result.fail("%s", problem)
		}
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if !config.ValidName(id) {
		result.fail("Invalid file name %q", id)
	}
	if preset.Name != "" && !strings.EqualFold(preset.Name, id) {
		result.fail("Name %q does not match file name %q", preset.Name, id)
	}

	if !result.Valid {
		return result
	}

	result.info("Tick interval: %s", preset.TickInterval())
	result.info("First piece: %s", preset.First())
	if preset.AutoLock {
		result.info("Auto-lock enabled")
	}
	if preset.Seed != 0 {
		result.info("Seeded piece sequence (%d)", preset.Seed)
	} else {
		result.info("Random piece sequence")
	}
	return result
}

// validateDir validates every *.json file in dir, in name order.
func validateDir(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no preset files found in " + dir)
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateConfig(file))
	}
	return results, nil
}

func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	results, err := validateDir(configDir)
	if err != nil {
		fmt.Printf("Error finding preset files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
			continue
		}

		fmt.Println("❌ INVALID")
		allValid = false
		for _, err := range result.Errors {
			if !strings.HasPrefix(err, "✓") {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
	fmt.Println("✅ All presets are valid!")
}
