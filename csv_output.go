package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

// rewriteResult is one URL run through the matcher and the marker toggle
type rewriteResult struct {
	url     string
	tracked bool
	result  string
}

// rewriteURLs applies the marker toggle to every tracked URL and leaves the
// rest untouched
func rewriteURLs(urls []string, enabled bool) []rewriteResult {
	results := make([]rewriteResult, 0, len(urls))
	for _, u := range urls {
		res := rewriteResult{url: u, result: u}
		if isTrackedURL(u) {
			res.tracked = true
			res.result = applyMarker(u, enabled, noCacheMarker)
		}

		results = append(results, res)
	}

	return results
}

// csvSink handles writing rewrite results to a CSV file
type csvSink struct {
	outputFile string
}

// newCSVSink creates a new csvSink instance
func newCSVSink(outputFile string) (*csvSink, error) {
	if outputFile == "" {
		return nil, errors.New("output path cannot be empty")
	}

	return &csvSink{outputFile}, nil
}

// writeResults writes the results to the output CSV
func (s *csvSink) writeResults(results []rewriteResult) error {
	outFile, err := os.Create(s.outputFile)
	if err != nil {
		return fmt.Errorf("cannot create output file %s: %w", s.outputFile, err)
	}
	defer outFile.Close()

	writer := csv.NewWriter(outFile)

	err = writer.Write([]string{"URL", "Tracked", "Result"})
	if err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	for _, res := range results {
		err := writer.Write([]string{res.url, boolToEmoji(res.tracked), res.result})
		if err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return outFile.Close()
}

// boolToEmoji takes in a boolean and returns corresponding
// emoji to visual inspection
func boolToEmoji(ok bool) string {
	if !ok {
		return "❌"
	}

	return "✅"
}
