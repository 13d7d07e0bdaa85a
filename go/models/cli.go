package models

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// PrintFlags writes flag help wrapped to 80 columns, defaults in parens.
func PrintFlags(w io.Writer, flags []*flag.Flag) {
	wname, wdef := 0, 0
	for _, f := range flags {
		if len(f.Name) > wname {
			wname = len(f.Name)
		}
		if len(f.DefValue) > wdef {
			wdef = len(f.DefValue)
		}
	}
	wdesc := 80 - wname - wdef - 7

	namefmt := fmt.Sprintf("%%-%ds", wname)
	deffmt := fmt.Sprintf("%%-%ds ", wdef+2)
	lpad := strings.Repeat(" ", wname+wdef+7)
	for _, f := range flags {
		fmt.Fprintf(w, "  -"+namefmt, f.Name)
		if f.DefValue != "" {
			fmt.Fprintf(w, " "+deffmt, "("+f.DefValue+")")
		} else {
			fmt.Fprintf(w, " "+deffmt, "  ")
		}
		usage := f.Usage
		for i := 0; i < len(usage); {
			if i > 0 {
				fmt.Fprint(w, lpad)
			}
			l := wdesc
			skip := false
			if i+wdesc > len(usage) {
				l = len(usage) - i
			} else if s := strings.LastIndexAny(usage[i:i+l], " \n"); s > 0 {
				l = s
				skip = true
			}
			fmt.Fprintf(w, "%s\n", usage[i:i+l])
			i += l
			if skip {
				i++
			}
		}
	}
}
