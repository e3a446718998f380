package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/parquet"
)

// writeWithFile opens the target (stdout when empty), runs writer against it and closes it.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes a header row followed by whatever writeRows emits.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return writeRows(csvWriter)
}

// writeParquet writes rows to outputFile. Parquet is binary, so stdout is refused.
func writeParquet[T any](outputFile string, rows []T, successMsg string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return writeWithFile(outputFile, func(w io.Writer) error {
		return parquet.Write(w, rows)
	}, successMsg)
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
	return fmtFloat, intFmt
}

// formatIDs joins work item ids with a pipe, the separator CSV consumers expect for lists.
func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}

// formatDate renders an optional date, leaving blanks for unset values.
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(contract.DateFormat)
}

// formatTimestamp renders an optional timestamp, leaving blanks for unset values.
func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(contract.DateTimeFormat)
}
