// Command pbsolve reads a pseudo-Boolean instance in OPB format from
// standard input and reports whether it is satisfiable.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/pbsolve/pbsolve/internal/opb"
	"github.com/pbsolve/pbsolve/internal/pb"
)

type config struct {
	cpuprof    string
	memprof    string
	timeBudget time.Duration
}

func parseConfig(args []string) config {
	fs := flag.NewFlagSet("pbsolve", flag.ExitOnError)
	cpuprof := fs.String("cpuprof", "", "write a CPU profile to this file")
	memprof := fs.String("memprof", "", "write a heap profile to this file")
	timeBudget := fs.Duration("timebudget", 0, "wall-clock search budget (0 = unbounded)")
	fs.Parse(args)
	return config{cpuprof: *cpuprof, memprof: *memprof, timeBudget: *timeBudget}
}

func main() {
	cfg := parseConfig(os.Args[1:])

	if cfg.cpuprof != "" {
		f, err := os.Create(cfg.cpuprof)
		if err != nil {
			log.Fatalf("pbsolve: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("pbsolve: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	run(cfg, os.Stdin, os.Stdout)

	if cfg.memprof != "" {
		f, err := os.Create(cfg.memprof)
		if err != nil {
			log.Fatalf("pbsolve: %v", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatalf("pbsolve: %v", err)
		}
	}
}

func run(cfg config, stdin io.Reader, stdout io.Writer) {
	opts := pb.DefaultOptions()
	opts.TimeBudget = cfg.timeBudget
	solver := pb.NewSolver(opts)

	res := opb.Parse(stdin, solver)
	w := bufio.NewWriter(stdout)
	defer w.Flush()

	if res.Err != nil {
		fmt.Fprintln(w, "s UNSUPPORTED")
		return
	}
	if res.RootUnsat {
		fmt.Fprintln(w, "s UNSATISFIABLE")
		return
	}

	result := solver.Solve()
	fmt.Fprintf(w, "s %s\n", result.Outcome)
	if result.Outcome != pb.Satisfiable {
		return
	}

	fmt.Fprint(w, "v")
	for v, val := range result.Model {
		if val {
			fmt.Fprintf(w, " x%d", v+1)
		} else {
			fmt.Fprintf(w, " -x%d", v+1)
		}
	}
	fmt.Fprintln(w)
}
