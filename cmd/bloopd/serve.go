package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"path/filepath"
	"time"

	bloopd "github.com/bloopbuild/bloopd"
	"github.com/bloopbuild/bloopd/internal/compiler"
	"github.com/bloopbuild/bloopd/internal/env"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/projectfile"
	"github.com/bloopbuild/bloopd/internal/rpcserver"
	"github.com/bloopbuild/bloopd/internal/trace"
)

const serveHelp = `bloopd serve [-flags]

serve runs the scheduler as a long-lived gRPC server, so that multiple
concurrent clients can share one deduplication registry and output-directory
refcounting pool.
`

func serve(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		listenAddr  = fset.String("listen", "localhost:8212", "[host]:port to serve gRPC requests on")
		projects    = fset.String("projects", "projects.textproto", "path to the workspace's project description")
		clientDir   = fset.String("client_dir", "", "base directory for per-client classes directories (defaults to $BLOOPROOT/clients)")
		tracePrefix = fset.String("trace", "", "if set, write a chrome://tracing event file to $TMPDIR/bloopd.traces/<prefix>.<pid>, spanning every client's compiles")
	)
	fset.Usage = usage(fset, serveHelp)
	fset.Parse(args)

	base := *clientDir
	if base == "" {
		base = env.BloopRoot + "/clients"
	}

	if *tracePrefix != "" {
		if err := trace.Enable(*tracePrefix); err != nil {
			return fmt.Errorf("enabling trace: %w", err)
		}
		bloopd.RegisterAtExit("trace", trace.Close)
	}

	resolved, err := projectfile.Load(*projects)
	if err != nil {
		return err
	}

	fake := &compiler.Fake{
		TypecheckDelay: 10 * time.Millisecond,
		JavaDelay:      10 * time.Millisecond,
		ClassesDirFor: func(p model.Project) string {
			return filepath.Join(env.BloopRoot, "shared", p.Name)
		},
	}

	srv := rpcserver.New(resolved, base, fake.Compile)
	grpcServer := rpcserver.NewGRPCServer(srv)

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		return err
	}
	log.Printf("bloopd serving on %s (projects=%s)", ln.Addr(), *projects)

	errCh := make(chan error, 1)
	go func() { errCh <- grpcServer.Serve(ln) }()

	select {
	case <-ctx.Done():
		log.Printf("shutting down: %v", bloopd.CancelCause(ctx))
		grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
