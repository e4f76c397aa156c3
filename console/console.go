// Package console renders bracket markup such as "[red]text[/red]" or
// "[#00AAFF]text[/#00AAFF]" and prints tables for terminal output.
package console

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-isatty"
)

var tagPattern = regexp.MustCompile(`\[(/?)(#[0-9A-Fa-f]{6}|[a-z]+)\]`)

var namedStyles = map[string]color.Color{
	"red":       color.FgRed,
	"green":     color.FgGreen,
	"yellow":    color.FgYellow,
	"blue":      color.FgBlue,
	"magenta":   color.FgMagenta,
	"cyan":      color.FgCyan,
	"white":     color.FgWhite,
	"bold":      color.OpBold,
	"italic":    color.OpItalic,
	"underline": color.OpUnderscore,
}

// styleCode returns the SGR code for a markup tag name.
func styleCode(name string) (string, bool) {
	if strings.HasPrefix(name, "#") {
		return color.HEX(strings.TrimPrefix(name, "#")).String(), true
	}
	c, ok := namedStyles[name]
	if !ok {
		return "", false
	}
	return c.String(), true
}

// Render converts markup to ANSI escapes, or strips the tags when useColor
// is false. Unknown tags are kept as literal text.
func Render(markup string, useColor bool) string {
	var (
		b     strings.Builder
		stack []string
		codes []string
		last  int
	)
	write := func(text string) {
		if text == "" {
			return
		}
		if !useColor || len(codes) == 0 {
			b.WriteString(text)
			return
		}
		b.WriteString(fmt.Sprintf(color.FullColorTpl, strings.Join(codes, ";"), text))
	}

	for _, m := range tagPattern.FindAllStringSubmatchIndex(markup, -1) {
		closing := markup[m[2]:m[3]] == "/"
		name := markup[m[4]:m[5]]
		code, known := styleCode(name)
		if !known {
			continue
		}
		write(markup[last:m[0]])
		last = m[1]

		if !closing {
			stack = append(stack, name)
			codes = append(codes, code)
			continue
		}
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i] == name {
				stack, codes = stack[:i], codes[:i]
				break
			}
		}
	}
	write(markup[last:])
	return b.String()
}

// Console writes rendered markup to an output.
type Console struct {
	out      io.Writer
	useColor bool
}

// New creates a console writing to out.
func New(out io.Writer, useColor bool) *Console {
	return &Console{out: out, useColor: useColor}
}

// Auto creates a console on stdout with color enabled when stdout is a
// terminal and NO_COLOR is unset.
func Auto() *Console {
	return New(os.Stdout, ColorSupported(os.Stdout))
}

// ColorSupported reports whether w is a terminal that should receive color.
func ColorSupported(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// UseColor reports whether output is colored.
func (c *Console) UseColor() bool {
	return c.useColor
}

// Print writes rendered markup followed by a newline.
func (c *Console) Print(markup string) {
	fmt.Fprintln(c.out, Render(markup, c.useColor))
}
