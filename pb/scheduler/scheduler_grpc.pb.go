package scheduler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SchedulerClient is the client API for Scheduler.
type SchedulerClient interface {
	Compile(ctx context.Context, in *CompileRequest, opts ...grpc.CallOption) (Scheduler_CompileClient, error)
}

type schedulerClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulerClient(cc grpc.ClientConnInterface) SchedulerClient {
	return &schedulerClient{cc}
}

func (c *schedulerClient) Compile(ctx context.Context, in *CompileRequest, opts ...grpc.CallOption) (Scheduler_CompileClient, error) {
	stream, err := c.cc.NewStream(ctx, &Scheduler_ServiceDesc.Streams[0], "/scheduler.Scheduler/Compile", opts...)
	if err != nil {
		return nil, err
	}
	x := &schedulerCompileClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Scheduler_CompileClient is the streamed-response half of Compile, mirroring
// the generated Build_RetrieveClient/Build_BuildClient shape.
type Scheduler_CompileClient interface {
	Recv() (*CompileEvent, error)
	grpc.ClientStream
}

type schedulerCompileClient struct {
	grpc.ClientStream
}

func (x *schedulerCompileClient) Recv() (*CompileEvent, error) {
	m := new(CompileEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// SchedulerServer is the server API for Scheduler.
type SchedulerServer interface {
	Compile(*CompileRequest, Scheduler_CompileServer) error
}

// UnimplementedSchedulerServer can be embedded to satisfy forward
// compatibility, the same pattern protoc-gen-go-grpc emits.
type UnimplementedSchedulerServer struct{}

func (UnimplementedSchedulerServer) Compile(*CompileRequest, Scheduler_CompileServer) error {
	return status.Errorf(codes.Unimplemented, "method Compile not implemented")
}

type Scheduler_CompileServer interface {
	Send(*CompileEvent) error
	grpc.ServerStream
}

type schedulerCompileServer struct {
	grpc.ServerStream
}

func (x *schedulerCompileServer) Send(m *CompileEvent) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterSchedulerServer(s grpc.ServiceRegistrar, srv SchedulerServer) {
	s.RegisterService(&Scheduler_ServiceDesc, srv)
}

func _Scheduler_Compile_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(CompileRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SchedulerServer).Compile(m, &schedulerCompileServer{stream})
}

// Scheduler_ServiceDesc is the grpc.ServiceDesc for Scheduler, the same
// hand-shaped value protoc-gen-go-grpc emits from the .proto service
// definition.
var Scheduler_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "scheduler.Scheduler",
	HandlerType: (*SchedulerServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Compile",
			Handler:       _Scheduler_Compile_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "scheduler.proto",
}
