// Package report renders a linkcheck.CrawlResult in the CLI's three output
// formats. Each format is a direct encoding/json or encoding/csv usage —
// straightforward structured serialization the standard library already
// covers well, so no third-party formatting library is pulled in here.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/websieve/linksweep/internal/linkcheck"
)

// Format names accepted by --format.
const (
	FormatText = "TEXT"
	FormatJSON = "JSON"
	FormatCSV  = "CSV"
)

// Write renders result to w in the named format.
func Write(w io.Writer, result linkcheck.CrawlResult, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV:
		return writeCSV(w, result)
	case FormatText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}

func writeJSON(w io.Writer, result linkcheck.CrawlResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

func writeText(w io.Writer, result linkcheck.CrawlResult) error {
	for _, link := range result.Links {
		if _, err := fmt.Fprintf(w, "%s %d %s\n", link.State, link.Status, link.URL); err != nil {
			return fmt.Errorf("report: write text row: %w", err)
		}
		if link.Parent != "" {
			if _, err := fmt.Fprintf(w, "  parent: %s\n", link.Parent); err != nil {
				return fmt.Errorf("report: write text row: %w", err)
			}
		}
	}
	summary := "PASS"
	if !result.Passed {
		summary = "FAIL"
	}
	if _, err := fmt.Fprintf(w, "%s (%d links checked)\n", summary, len(result.Links)); err != nil {
		return fmt.Errorf("report: write text summary: %w", err)
	}
	return nil
}

// writeCSV emits the wire format documented for CSV output:
// url,status,state,parent,failureDetails — failureDetails is a
// JSON-encoded, quoted string.
func writeCSV(w io.Writer, result linkcheck.CrawlResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"url", "status", "state", "parent", "failureDetails"}); err != nil {
		return fmt.Errorf("report: write csv header: %w", err)
	}
	for _, link := range result.Links {
		var failureDetails string
		if len(link.FailureDetails) > 0 {
			encoded, err := json.Marshal(link.FailureDetails)
			if err != nil {
				return fmt.Errorf("report: encode failure details: %w", err)
			}
			failureDetails = string(encoded)
		}
		row := []string{
			link.URL,
			fmt.Sprintf("%d", link.Status),
			string(link.State),
			link.Parent,
			failureDetails,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("report: write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("report: flush csv: %w", err)
	}
	return nil
}
