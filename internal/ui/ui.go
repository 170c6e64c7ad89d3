// Package ui renders colored terminal output for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
)

// Header prints a banner around a section of output.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	green.Printf("\n%s\n", line)
	green.Printf("%-60s\n", center(text, headerWidth))
	green.Printf("%s\n\n", line)
}

// Success prints the outcome of a completed operation.
func Success(text string) {
	green.Printf("  → %s\n", text)
}

// Info prints a neutral status message.
func Info(text string) {
	fmt.Fprintf(color.Output, "  → %s\n", text)
}

// Warning prints a message about a skipped or aborted operation.
func Warning(text string) {
	yellow.Printf("  ⚠ %s\n", text)
}

// Error prints a failure message.
func Error(text string) {
	red.Printf("Error: %s\n", text)
}

// center pads text on the left so it sits centered within width.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
