package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Styles
// =============================================================================

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorCmd    = lipgloss.Color("75")
	colorMuted  = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders problem names and table titles.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleNumber renders block counts and scores.
	StyleNumber = lipgloss.NewStyle().Foreground(colorAccent)
	// StyleWarning renders warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)

	styleHeader = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	styleKey    = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
)

// =============================================================================
// Output Lines
// =============================================================================

// mark prints msg behind a colored marker.
func mark(w io.Writer, marker string, color lipgloss.Color, msg string) {
	fmt.Fprintln(w, lipgloss.NewStyle().Foreground(color).Render(marker)+" "+msg)
}

func printSuccess(w io.Writer, format string, args ...any) {
	mark(w, "✓", colorOK, fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	mark(w, "!", colorWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	mark(w, "›", colorMuted, fmt.Sprintf(format, args...))
}

// printDetail prints an indented muted line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render("→")+" "+path)
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+value)
}

// printStats prints the problem size and whether detection came from cache.
func printStats(w io.Writer, nConss, nVars, nNonzeros int, cached bool) {
	origin := lipgloss.NewStyle().Foreground(colorMuted).Render("fresh")
	if cached {
		origin = lipgloss.NewStyle().Foreground(colorOK).Render("cached")
	}
	sep := StyleDim.Render(" · ")
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d conss", nConss)),
		StyleDim.Render(fmt.Sprintf("%d vars", nVars)),
		StyleDim.Render(fmt.Sprintf("%d nonzeros", nNonzeros)),
		origin,
	}
	fmt.Fprintln(w, "  "+strings.Join(parts, sep))
}

// printNextStep suggests a follow-up command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+lipgloss.NewStyle().Foreground(colorCmd).Render(cmd))
}
