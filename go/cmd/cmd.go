package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	lazycorn "github.com/lunixbochs/lazycorn/go"
	"github.com/lunixbochs/lazycorn/go/models"
)

type LazycornCmd struct {
	Config *models.Config
	Flags  *flag.FlagSet

	Stdout io.Writer
	Stderr io.Writer
	// colored fatal banners and register names, defaults to isatty(stderr)
	Color bool
}

func NewLazycornCmd() *LazycornCmd {
	return &LazycornCmd{
		Flags:  flag.NewFlagSet("lazycorn", flag.ContinueOnError),
		Stdout: os.Stdout,
		Stderr: colorable.NewColorableStderr(),
		Color:  isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// deepest error in the chain that carries a stack
func findStack(err error) stackTracer {
	var found stackTracer
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			found = st
		}
		err = errors.Unwrap(err)
	}
	return found
}

// PrintError prints an error, and a stacktrace if available.
func (c *LazycornCmd) PrintError(err error) {
	w := c.Stderr
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Error: %s\n", err)
	st := findStack(err)
	if st == nil {
		return
	}
	// parse full path and method name for each stack frame
	var frames [][]string
	for _, f := range st.StackTrace() {
		fullpath := ""
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)

		frame := fmt.Sprintf("%+s", f)
		tmp := strings.SplitN(frame, "\n", 3)
		if len(tmp) == 2 {
			pathsplit := strings.Split(tmp[0], "/")
			method = pathsplit[len(pathsplit)-1]
			fullpath = strings.TrimSpace(tmp[1])
		}
		frames = append(frames, []string{fullpath, fileline, method})
		if method == "main.main" {
			break
		}
	}
	// calculate column widths
	widths := make([]int, 3)
	for _, f := range frames {
		for i, s := range f {
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}
	for _, f := range frames {
		for i := 0; i < 2; i++ {
			if widths[i] > 0 {
				pad := strings.Repeat(" ", widths[i]-len(f[i]))
				fmt.Fprintf(w, "%s%s | ", f[i], pad)
			}
		}
		fmt.Fprintf(w, "%s()\n", f[2])
	}
}

func (c *LazycornCmd) usage() {
	fmt.Fprintf(c.Stderr, "Usage: %s [options] <elf>\n\nOptions:\n", c.Flags.Name())
	var flags []*flag.Flag
	c.Flags.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
	models.PrintFlags(c.Stderr, flags)
	fmt.Fprintf(c.Stderr, "\nExample:\n  %s -v -fill page bins/rv32.elf\n", c.Flags.Name())
}

func (c *LazycornCmd) logger(verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(c.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowInfo())
}

// Run parses argv, loads and runs the program, and returns the process exit
// code: the guest's exit status if it called exit, 1 on any fatal error.
func (c *LazycornCmd) Run(argv []string) int {
	config := &models.Config{Fill: models.FillClamp}
	fs := c.Flags
	fs.SetOutput(c.Stderr)
	verbose := fs.Bool("v", false, "verbose output")
	pagesize := fs.Uint64("pagesize", uint64(unix.Getpagesize()), "page size used to map segments, a power of two")
	fs.Var(&config.Fill, "fill", "page fill: clamp copies only file-backed segment bytes, page copies a whole page from the file like the original C loader")
	tracefile := fs.String("trace", "", "write a fault trace to file")
	metrics := fs.String("metrics", "", "write pager metrics in Prometheus text format to file")
	stack := fs.Uint64("stack", models.DefaultStackSize, "stack size")
	fs.Usage = c.usage

	if err := fs.Parse(argv[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	args := fs.Args()
	if len(args) != 1 {
		fs.Usage()
		return 1
	}
	config.Color = c.Color
	config.Verbose = *verbose
	config.PageSize = *pagesize
	config.TracePath = *tracefile
	config.MetricsPath = *metrics
	config.StackSize = *stack
	config.Stdout = c.Stdout
	config.Stderr = c.Stderr
	config.Logger = c.logger(*verbose)
	c.Config = config

	corn, err := lazycorn.NewLazycorn(args[0], config)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	defer corn.Close()

	res, err := corn.Run()
	if err != nil {
		var fatal *lazycorn.FatalError
		if errors.As(err, &fatal) {
			fmt.Fprint(c.Stderr, fatal.Dump(corn.Arch().Bits, config.Color))
		}
		c.PrintError(err)
		return 1
	}
	res.Report(c.Stdout)
	if res.Exited {
		return res.Return
	}
	return 0
}
