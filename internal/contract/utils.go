package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/flowpulse/schema"
)

// Color variables for console output.
var (
	LargeChangeColor    = color.New(color.FgRed, color.Bold)     // outside the natural process limits
	ModerateChangeColor = color.New(color.FgMagenta, color.Bold) // two of three beyond two sigma
	ModerateShiftColor  = color.New(color.FgYellow)              // four of five beyond one sigma
	SmallShiftColor     = color.New(color.FgCyan)                // eight on one side
	ReadyColor          = color.New(color.FgGreen)
	InvalidColor        = color.New(color.FgRed)
)

// GetPlainLabel returns the text used for a special cause in CSV, JSON and tables.
func GetPlainLabel(cause schema.SpecialCause) string {
	if cause == "" {
		return string(schema.NoSpecialCause)
	}
	return string(cause)
}

// GetColorLabel returns a colored special cause label for console output (table).
func GetColorLabel(cause schema.SpecialCause) string {
	text := GetPlainLabel(cause)

	switch cause {
	case schema.LargeChange:
		return LargeChangeColor.Sprint(text)
	case schema.ModerateChange:
		return ModerateChangeColor.Sprint(text)
	case schema.ModerateShift:
		return ModerateShiftColor.Sprint(text)
	case schema.SmallShift:
		return SmallShiftColor.Sprint(text)
	default:
		return text
	}
}

// GetStatusLabel returns a colored baseline status for console output.
func GetStatusLabel(status schema.BaselineStatus) string {
	if status == schema.BaselineReady {
		return ReadyColor.Sprint(string(status))
	}
	return InvalidColor.Sprint(string(status))
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// GetDBFilePath returns the path to the SQLite DB file for the work item store.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".flowpulse.db"
	}
	return filepath.Join(homeDir, ".flowpulse.db")
}

// TruncateName truncates a work item name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so that at least one character survives.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
