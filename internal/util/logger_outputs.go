package util

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// ConsoleOutput writes text-formatted logs to a writer
type ConsoleOutput struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewConsoleOutput creates a new console output
func NewConsoleOutput(writer io.Writer) Output {
	return &ConsoleOutput{writer: writer}
}

// Write writes a log entry to the console
func (c *ConsoleOutput) Write(entry LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintln(c.writer, formatEntry(entry))
	return err
}

// Close closes the console output
func (c *ConsoleOutput) Close() error {
	return nil
}

// FileOutput appends text-formatted logs to a file
type FileOutput struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileOutput creates a new file output
func NewFileOutput(path string) (Output, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileOutput{file: file}, nil
}

// Write writes a log entry to the file
func (f *FileOutput) Write(entry LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := fmt.Fprintln(f.file, formatEntry(entry))
	return err
}

// Close closes the file
func (f *FileOutput) Close() error {
	return f.file.Close()
}

// formatEntry renders a log entry as a single text line. Fields are sorted
// by key so output is stable across runs.
func formatEntry(entry LogEntry) string {
	timestamp := entry.Timestamp.Format("2006/01/02 15:04:05")
	output := fmt.Sprintf("%s [%s] %s", timestamp, entry.Level, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fieldStrs := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldStrs = append(fieldStrs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		output += " " + strings.Join(fieldStrs, " ")
	}

	return output
}
