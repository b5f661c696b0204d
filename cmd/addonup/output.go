package addonup

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mistweaverco/addonup/internal/config"
)

// GetOutputMode returns the current output mode from config
func GetOutputMode() config.OutputMode {
	if getColorConfigFunc != nil {
		if mode := getColorConfigFunc().Output; mode != "" {
			return mode
		}
	}
	return config.OutputModePlain
}

func ShouldUseJSONOutput() bool {
	return GetOutputMode() == config.OutputModeJSON
}

func ShouldUseRichOutput() bool {
	return GetOutputMode() == config.OutputModeRich
}

// PrintJSON writes data as indented JSON
func PrintJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

var (
	headerPattern = regexp.MustCompile(`(?m)^#+\s*`)
	boldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	codePattern   = regexp.MustCompile("`([^`]+)`")
	blankPattern  = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// RemoveMarkdownFormatting strips the markdown the commands emit
func RemoveMarkdownFormatting(text string) string {
	text = headerPattern.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "$1")
	text = codePattern.ReplaceAllString(text, "$1")
	text = blankPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// printMarkdown renders md with glamour in rich mode and as plain text otherwise.
func printMarkdown(w io.Writer, md string) {
	if !ShouldUseRichOutput() {
		fmt.Fprintln(w, RemoveMarkdownFormatting(md))
		return
	}

	style := "notty"
	if shouldUseColors() {
		style = "auto"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		fmt.Fprintln(w, RemoveMarkdownFormatting(md))
		return
	}
	rendered, err := r.Render(md)
	if err != nil {
		fmt.Fprintln(w, RemoveMarkdownFormatting(md))
		return
	}
	fmt.Fprint(w, rendered)
}
