// Package cli holds terminal helpers for the flowfsm command: boxed banners
// and interactive prompts.
package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"

	"github.com/amp-labs/flowfsm/envutil"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"
)

const (
	AlignLeft = iota
	AlignCenter
	AlignRight

	bannerPadding   = 2
	dividerPadding  = 2
	truncateReserve = 1
	halfDivisor     = 2
)

// DefaultTerminalWidth is used when the terminal size cannot be determined.
const DefaultTerminalWidth = 80

// bannersSuppressed reports whether FLOWFSM_NO_BANNER asks for plain output.
func bannersSuppressed() bool {
	return envutil.Bool("FLOWFSM_NO_BANNER", envutil.Default(false)).ValueOrElse(false)
}

func terminalWidth() int {
	_, w, err := TerminalDimensions()
	if err != nil || w == 0 {
		return DefaultTerminalWidth
	}

	return int(w) //nolint:gosec // Terminal width is bounded by screen size
}

// DividerAutoWidth returns a divider spanning the terminal.
func DividerAutoWidth() string {
	return Divider(terminalWidth())
}

// BannerAutoWidth boxes s to the width of the terminal.
func BannerAutoWidth(s string, alignment int) string {
	if bannersSuppressed() {
		return s + "\n"
	}

	return Banner(s, terminalWidth(), alignment)
}

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width < dividerPadding {
		return ""
	}

	return fmt.Sprintf("%s%s%s\n", dividerLeft, strings.Repeat(dividerMiddle, width-dividerPadding), dividerRight)
}

// Banner draws s inside a box of the given width. Lines longer than the box
// are truncated with an ellipsis. It returns "" for an empty string, a width
// too small for the box or an unknown alignment.
func Banner(s string, width int, alignment int) string {
	if bannersSuppressed() {
		return s + "\n"
	}

	if s == "" || width <= bannerPadding {
		return ""
	}

	inner := width - bannerPadding
	parts := []string{boxTopLeft + strings.Repeat(boxTop, inner) + boxTopRight}

	for _, l := range getLines(s) {
		var line string

		switch alignment {
		case AlignCenter:
			line = padCenter(l, inner)
		case AlignLeft:
			line = padLeft(l, inner)
		case AlignRight:
			line = padRight(l, inner)
		default:
			return ""
		}

		parts = append(parts, boxSide+line+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n") + "\n"
}

func getLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

// fit truncates text to width graphic runes and returns it with its length.
func fit(text string, width int) (string, int) {
	length := countGraphic(text)
	if length <= width {
		return text, length
	}

	var (
		out   strings.Builder
		count int
	)

	for _, r := range text {
		if count >= width-truncateReserve {
			break
		}

		if unicode.IsGraphic(r) {
			count++
		}

		out.WriteRune(r)
	}

	out.WriteString(ellipsis)

	return out.String(), count + 1
}

func padCenter(text string, width int) string {
	str, length := fit(text, width)
	diff := width - length
	leftPad := diff / halfDivisor

	return strings.Repeat(" ", leftPad) + str + strings.Repeat(" ", diff-leftPad)
}

func padLeft(text string, width int) string {
	str, length := fit(text, width)

	return str + strings.Repeat(" ", width-length)
}

func padRight(text string, width int) string {
	str, length := fit(text, width)

	return strings.Repeat(" ", width-length) + str
}

func size() (string, error) {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return "", err
	}

	defer f.Close() //nolint:errcheck

	// Outputs: "rows columns"
	cmd := exec.Command("stty", "size")
	cmd.Stdin = f

	out, err := cmd.Output()

	return string(out), err
}

func parse(input string) (uint, uint, error) {
	parts := strings.Fields(input)
	if len(parts) != 2 { //nolint:mnd
		return 0, 0, fmt.Errorf("%w: unexpected stty output %q", strconv.ErrSyntax, input)
	}

	rows, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	cols, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	return uint(rows), uint(cols), nil
}

// TerminalDimensions returns (rows, cols, err).
func TerminalDimensions() (uint, uint, error) {
	output, err := size()
	if err != nil {
		return 0, 0, err
	}

	return parse(output)
}
