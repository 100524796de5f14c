// Package rpcserver wires the gRPC front end (pb/scheduler) to the
// scheduling core: one process-wide dedup.Registry and sched.Pool shared by
// every client connection, with a fresh, cheap Sequential or Pipelined
// evaluator constructed per request so each gets its own client-specific
// Reporter/Logger pair, grounded on cmd/distri/builder.go's buildsrv (a
// struct embedding the shared state a streaming RPC handler needs, plus a
// RegisterXServer/grpc.NewServer/reflection.Register wiring in its
// constructor).
package rpcserver

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bloopbuild/bloopd/internal/compiler"
	"github.com/bloopbuild/bloopd/internal/dedup"
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/outputs"
	"github.com/bloopbuild/bloopd/internal/projectfile"
	"github.com/bloopbuild/bloopd/internal/sched"
	"github.com/bloopbuild/bloopd/pb/scheduler"
	"golang.org/x/xerrors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// Server is the Scheduler gRPC service implementation.
type Server struct {
	scheduler.UnimplementedSchedulerServer

	Registry  *dedup.Registry
	Pool      *sched.Pool
	Resolved  *projectfile.Resolved
	Compile   model.CompileFunc
	ClientDir string // base directory under which per-client classes dirs are allocated

	nextTraceTid int32 // assigns each Compile stream its own chrome://tracing track
}

// New constructs a Server around a freshly loaded workspace. tracker and
// registry are created here so callers that only need one workspace can
// ignore them; NewWithRegistry lets a caller share a Registry/Pool across
// several Servers (e.g. one per workspace) the way a real deployment would.
func New(resolved *projectfile.Resolved, clientDir string, compile model.CompileFunc) *Server {
	return NewWithRegistry(dedup.New(outputs.New()), sched.NewPool(0), resolved, clientDir, compile)
}

func NewWithRegistry(registry *dedup.Registry, pool *sched.Pool, resolved *projectfile.Resolved, clientDir string, compile model.CompileFunc) *Server {
	return &Server{
		Registry:  registry,
		Pool:      pool,
		Resolved:  resolved,
		Compile:   compile,
		ClientDir: clientDir,
	}
}

// NewGRPCServer builds a *grpc.Server with srv registered, the same
// grpc.NewServer/RegisterXServer/reflection.Register trio
// cmd/distri/builder.go's builder() command uses. The caller is
// responsible for net.Listen and Serve, as builder() is.
func NewGRPCServer(srv *Server) *grpc.Server {
	s := grpc.NewServer()
	scheduler.RegisterSchedulerServer(s, srv)
	reflection.Register(s)
	return s
}

// perClient implements model.ClientInfo by allocating a directory under
// base/<clientID>/<project> per project, the simplest stable-per-connection
// layout: one Compile stream, one client identity, for its lifetime.
type perClient struct {
	base     string
	clientID string
}

func (c perClient) GetUniqueClassesDirFor(p model.Project) (string, error) {
	dir := filepath.Join(c.base, c.clientID, p.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", xerrors.Errorf("allocating classes dir for %s: %w", p, err)
	}
	return dir, nil
}

// Compile serves the Scheduler.Compile RPC: resolve the requested project
// in the loaded workspace, pick the scheduling strategy the request asked
// for, traverse, and stream every reporter/logger action plus a terminal
// Done event back to the caller.
func (s *Server) Compile(req *scheduler.CompileRequest, stream scheduler.Scheduler_CompileServer) error {
	ref := req.GetProject()
	if ref == nil || ref.GetName() == "" {
		return status.Errorf(codes.InvalidArgument, "project is required")
	}
	project := model.Project{Name: ref.GetName(), Config: ref.GetConfig()}

	dag, ok := s.findDAG(project)
	if !ok {
		return status.Errorf(codes.NotFound, "unknown project %q", project.Name)
	}

	sink := &streamSink{stream: stream, tid: int(atomic.AddInt32(&s.nextTraceTid, 1))}
	reporter := streamReporter{sink: sink}
	logger := streamLogger{sink: sink, project: project.Name}
	setup := compiler.Setup(reporter, logger)
	client := perClient{base: s.ClientDir, clientID: fmt.Sprintf("peer-%p", stream)}

	var ev graph.Evaluator
	if req.GetPipelined() {
		ev = &sched.Pipelined{
			Registry:  s.Registry,
			Pool:      s.Pool,
			Setup:     setup,
			Compile:   s.Compile,
			Client:    client,
			Inputs:    s.Resolved.BundleInputs,
			Classpath: s.Resolved.Classpath,
		}
	} else {
		ev = &sched.Sequential{
			Registry: s.Registry,
			Pool:     s.Pool,
			Setup:    setup,
			Compile:  s.Compile,
			Client:   client,
			Inputs:   s.Resolved.BundleInputs,
		}
	}

	node, err := graph.Traverse(stream.Context(), dag, ev)
	if err != nil {
		return status.Errorf(codes.Internal, "traversal: %v", err)
	}
	if err := sink.err(); err != nil {
		return err
	}
	sendTerminal(sink, project, node)
	return sink.err()
}

func (s *Server) findDAG(p model.Project) (graph.DAG, bool) {
	var find func(d graph.DAG) (graph.DAG, bool)
	find = func(d graph.DAG) (graph.DAG, bool) {
		switch n := d.(type) {
		case *graph.Leaf:
			if n.Project == p {
				return n, true
			}
		case *graph.Parent:
			if n.Project == p {
				return n, true
			}
			for _, c := range n.Children {
				if found, ok := find(c); ok {
					return found, true
				}
			}
		case *graph.Aggregate:
			for _, c := range n.DAGs {
				if found, ok := find(c); ok {
					return found, true
				}
			}
		}
		return nil, false
	}
	return find(s.Resolved.Root)
}

// sendTerminal emits the Done event summarizing the result-DAG root's
// outcome for project.
func sendTerminal(sink *streamSink, project model.Project, node *graph.ResultNode) {
	ev := &scheduler.CompileEvent{Kind: int32(scheduler.EventDone), Project: project.Name}
	switch r := node.Result.(type) {
	case *model.PartialSuccess:
		ev.Status = "ok"
		if r.Result != nil && r.Result.Successful != nil {
			ev.ClassesDir = r.Result.Successful.ClassesDir
		}
	case *model.PartialFailure:
		ev.Status = "failed"
		if r.Cause != nil {
			ev.Message = r.Cause.Error()
		}
	case *model.PartialFailures:
		ev.Status = "failed"
	default:
		ev.Status = "empty"
	}
	sink.send(ev)
}
