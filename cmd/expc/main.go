// Command expc is the driver binary: it parses CLI flags, then delegates
// to internal/driver for everything else, per spec.md §6's contract that
// the driver lives entirely outside the core.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/exp-lang/expc/internal/driver"
)

const version = "expc 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("expc", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: expc [flags] <source.exp>\n\nflags:\n")
		fs.PrintDefaults()
	}

	out := fs.String("o", "a.out", "output binary path")
	showVersion := fs.Bool("v", false, "print version and exit")
	trace := fs.Bool("trace", false, "enable verbose compiler pass tracing")
	dumpIR := fs.String("dump-ir", "", "write a YAML IR dump to this path")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Println(version)
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	opts := driver.Options{
		SrcPath: fs.Arg(0),
		OutPath: *out,
		Trace:   *trace,
		DumpIR:  *dumpIR,
	}
	if err := driver.Run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
