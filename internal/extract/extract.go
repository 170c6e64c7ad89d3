// Package extract slices the tabular block out of statement exports
// that wrap their CSV data in preamble and footer junk.
package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Table returns the CSV block of an export: everything from the line
// containing catchPhrase (the header row) up to the first blank
// line after it, or end of input when there is none. Leading and
// trailing commas are stripped per line, since exporters pad short rows
// with empty cells. When the catch phrase never appears the whole input
// is returned; an empty input yields an empty string.
func Table(r io.Reader, catchPhrase string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading export: %w", err)
	}
	if len(lines) == 0 {
		return "", nil
	}

	start := -1
	end := len(lines)
	for i, line := range lines {
		if strings.Contains(line, catchPhrase) {
			start = i
		} else if start >= 0 && strings.TrimSpace(line) == "" {
			end = i
			break
		}
	}
	if start < 0 {
		start = 0
	}

	block := lines[start:end]
	for i, line := range block {
		block[i] = strings.Trim(strings.TrimSpace(line), ",")
	}
	return strings.Join(block, "\n"), nil
}
