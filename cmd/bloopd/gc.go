package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bloopbuild/bloopd/internal/env"
	"github.com/bloopbuild/bloopd/internal/projectfile"
)

const gcHelp = `bloopd gc [-flags]

gc deletes shared classes directories under BLOOPROOT/shared that no longer
correspond to a project in projects.textproto. Unlike internal/outputs'
in-process refcounting (which only ever reclaims a directory a live process
has displaced), this reclaims directories left behind by projects removed
from the workspace entirely, across server restarts.
`

func gc(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("gc", flag.ExitOnError)
	var (
		projects = fset.String("projects", "projects.textproto", "path to the workspace's project description")
		dryRun   = fset.Bool("dry_run", false, "only print directories which would otherwise be deleted")
	)
	fset.Usage = usage(fset, gcHelp)
	fset.Parse(args)

	resolved, err := projectfile.Load(*projects)
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, len(resolved.Descriptor))
	for p := range resolved.Descriptor {
		wanted[p.Name] = true
	}

	sharedDir := filepath.Join(env.BloopRoot, "shared")
	entries, err := ioutil.ReadDir(sharedDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("%s does not exist, nothing to collect", sharedDir)
			return nil
		}
		return err
	}

	var removed int
	for _, e := range entries {
		if !e.IsDir() || wanted[e.Name()] {
			continue
		}
		dir := filepath.Join(sharedDir, e.Name())
		if *dryRun {
			fmt.Printf("would delete %s\n", dir)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		removed++
	}
	log.Printf("gc: removed %d stale classes director(ies)", removed)
	return nil
}
