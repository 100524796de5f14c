package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	bloopd "github.com/bloopbuild/bloopd"
	"github.com/bloopbuild/bloopd/internal/oninterrupt"
)

var debug = flag.Bool("debug", false, "enable debug mode: format error messages with additional detail")

func funcmain() error {
	flag.Parse()

	oninterrupt.Register(func() {
		log.Printf("interrupted, shutting down")
	})

	type cmd struct {
		fn func(ctx context.Context, args []string) error
	}
	verbs := map[string]cmd{
		"build": {cmdbuild},
		"serve": {serve},
		"gc":    {gc},
		"env":   {printenv},
	}

	args := flag.Args()
	verb := "build"
	if len(args) > 0 {
		verb, args = args[0], args[1:]
	}

	if verb == "help" {
		fmt.Fprintf(os.Stderr, "bloopd [-flags] <command> [-flags] <args>\n")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "To get help on any command, use bloopd <command> -help.\n")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "\tbuild  - resolve projects.textproto and compile it in-process\n")
		fmt.Fprintf(os.Stderr, "\tserve  - run the scheduler as a long-lived gRPC server\n")
		fmt.Fprintf(os.Stderr, "\tgc     - delete stale classes directories\n")
		fmt.Fprintf(os.Stderr, "\tenv    - display bloopd's environment variables\n")
		os.Exit(2)
	}

	ctx, canc := bloopd.InterruptibleContext()
	defer canc()

	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		fmt.Fprintf(os.Stderr, "syntax: bloopd <command> [options]\n")
		os.Exit(2)
	}
	err := v.fn(ctx, args)
	// Shutdown hooks (e.g. internal/trace.Close) must run whether the verb
	// succeeded or failed, so a -trace run that's cancelled mid-build still
	// leaves a readable trace file.
	if atErr := bloopd.RunAtExit(); atErr != nil && err == nil {
		err = atErr
	}
	if err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verb, err)
		}
		return fmt.Errorf("%s: %v", verb, err)
	}
	return nil
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
