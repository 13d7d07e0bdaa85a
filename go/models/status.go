package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
)

var (
	chBanner = ansi.ColorCode("red+b")
	chName   = ansi.ColorCode("default+b")
)

func colorPad(s, color string, pad int) string {
	length := len(s)
	if color != "" {
		s = color + s + ansi.Reset
	}
	if length < pad {
		s = strings.Repeat(" ", pad-length) + s
	}
	return s
}

// Banner formats a one-line fatal message.
func Banner(msg string, color bool) string {
	line := "[fatal] " + msg
	if color {
		return chBanner + line + ansi.Reset
	}
	return line
}

// FormatRegs lays registers out column-wise, four per row.
func FormatRegs(regs []RegVal, bits int, color bool) string {
	if len(regs) == 0 {
		return ""
	}
	hexFmt := fmt.Sprintf("%%0%dx", bits/4)
	nameColor := ""
	if color {
		nameColor = chName
	}
	cols := 4
	rows := (len(regs) + cols - 1) / cols
	var out []string
	for i := 0; i < rows; i++ {
		var line []string
		for j := 0; j < cols; j++ {
			n := j*rows + i
			if n >= len(regs) {
				break
			}
			r := regs[n]
			line = append(line, fmt.Sprintf("%s 0x"+hexFmt, colorPad(r.Name, nameColor, 4), r.Val))
		}
		out = append(out, strings.Join(line, " "))
	}
	return strings.Join(out, "\n") + "\n"
}
