package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/bloopbuild/bloopd/internal/env"
)

const envHelp = `bloopd env [-flags]

Display bloopd's environment variables.

Example:
  % bloopd env
`

func printenv(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("env", flag.ExitOnError)
	fset.Usage = usage(fset, envHelp)
	fset.Parse(args)
	if fset.NArg() > 0 && fset.Arg(0) == "BLOOPROOT" {
		fmt.Println(env.BloopRoot)
		return nil
	}
	fmt.Printf("BLOOPROOT=%q\n", env.BloopRoot)
	return nil
}
