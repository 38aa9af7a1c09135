package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// messager describes an error that can report its own message without the chain.
type messager interface {
	Message() string
}

type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one link of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the error chain. Errors that report their own
// message contribute one entry each; the first plain error ends the walk.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error()})
			break
		}

		entry := ErrorEntry{Message: m.Message()}
		if md, ok := current.(metadataer); ok {
			entry.Metadata = md.Metadata()
		}
		entries = append(entries, entry)
		current = errors.Unwrap(current)
	}
	return entries
}

// formatErrorEntries renders the chain as the main error followed by its causes.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, entry := range entries {
		first, rest := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			first, rest = "    → ", "      "
		}

		msgLines := strings.Split(entry.Message, "\n")
		lines = append(lines, first+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, rest+line)
		}

		keys := make([]string, 0, len(entry.Metadata))
		for k := range entry.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s%s: %v", rest, k, entry.Metadata[k]))
		}
	}
	return strings.Join(lines, "\n")
}
