package console

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when a chat starts.
func PrintBanner(out io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`       _        _       `, "#818cf8"},
		{`  ___ | | _____(_)_ __  `, "#a78bfa"},
		{` / __|| |/ / _ \ | '_ \ `, "#c084fc"},
		{` \__ \|   <  __/ | | | |`, "#e879f9"},
		{` |___/|_|\_\___|_|_| |_|`, "#f472b6"},
	}

	fmt.Fprintln(out)
	for _, l := range lines {
		fmt.Fprintln(out, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(out)
}
