package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

var (
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgBlue)
	bannerColor  = color.New(color.FgCyan)
)

// PrintBanner writes the application banner.
func PrintBanner(w io.Writer) {
	bannerColor.Fprintln(w, figure.NewFigure("Maxsatt", "isometric1", true).String())
	bannerColor.Fprintln(w, figure.NewFigure("Scenes", "isometric1", true).String())
	fmt.Fprintln(w)
}

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(w io.Writer, message string) {
	warningColor.Fprintln(w, "\nWarning:")
	warningColor.Fprintln(w, message)
}

// PrintError displays an error message with consistent formatting
func PrintError(w io.Writer, message string) {
	errorColor.Fprintf(w, "\nError: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(w io.Writer, message string) {
	successColor.Fprintf(w, "\n%s\n", message)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(w io.Writer, message string) {
	infoColor.Fprint(w, message)
}

// ReadString prompts and reads one trimmed line. io.EOF is returned once the
// input is exhausted.
func ReadString(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	PrintInfo(w, prompt)
	input, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadInt reads an integer between min and max.
func ReadInt(r *bufio.Reader, w io.Writer, prompt string, min, max int) (int, error) {
	input, err := ReadString(r, w, prompt)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}
	return value, nil
}
