// Package scheduler holds the gRPC wire messages and service definition
// for driving the compilation scheduler remotely, hand-written in the
// shape protoc-gen-go/protoc-gen-go-grpc would produce.
package scheduler

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// ProjectRef identifies a project on the wire.
type ProjectRef struct {
	Name   string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Config string `protobuf:"bytes,2,opt,name=config,proto3" json:"config,omitempty"`

	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *ProjectRef) Reset()         { *m = ProjectRef{} }
func (m *ProjectRef) String() string { return proto.CompactTextString(m) }
func (*ProjectRef) ProtoMessage()    {}

func (m *ProjectRef) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

func (m *ProjectRef) GetConfig() string {
	if m != nil {
		return m.Config
	}
	return ""
}

// CompileRequest asks the scheduler to compile project, deduplicating
// against any already-running compilation with the same fingerprint.
type CompileRequest struct {
	Project   *ProjectRef `protobuf:"bytes,1,opt,name=project,proto3" json:"project,omitempty"`
	Sources   []string    `protobuf:"bytes,2,rep,name=sources,proto3" json:"sources,omitempty"`
	Classpath []string    `protobuf:"bytes,3,rep,name=classpath,proto3" json:"classpath,omitempty"`
	Options   []string    `protobuf:"bytes,4,rep,name=options,proto3" json:"options,omitempty"`
	Pipelined bool        `protobuf:"varint,5,opt,name=pipelined,proto3" json:"pipelined,omitempty"`

	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *CompileRequest) Reset()         { *m = CompileRequest{} }
func (m *CompileRequest) String() string { return proto.CompactTextString(m) }
func (*CompileRequest) ProtoMessage()    {}

func (m *CompileRequest) GetProject() *ProjectRef {
	if m != nil {
		return m.Project
	}
	return nil
}

func (m *CompileRequest) GetSources() []string {
	if m != nil {
		return m.Sources
	}
	return nil
}

func (m *CompileRequest) GetClasspath() []string {
	if m != nil {
		return m.Classpath
	}
	return nil
}

func (m *CompileRequest) GetOptions() []string {
	if m != nil {
		return m.Options
	}
	return nil
}

func (m *CompileRequest) GetPipelined() bool {
	if m != nil {
		return m.Pipelined
	}
	return false
}

// DiagnosticProto mirrors model.Diagnostic on the wire.
type DiagnosticProto struct {
	Path     string `protobuf:"bytes,1,opt,name=path,proto3" json:"path,omitempty"`
	Line     int32  `protobuf:"varint,2,opt,name=line,proto3" json:"line,omitempty"`
	Column   int32  `protobuf:"varint,3,opt,name=column,proto3" json:"column,omitempty"`
	Severity string `protobuf:"bytes,4,opt,name=severity,proto3" json:"severity,omitempty"`
	Message  string `protobuf:"bytes,5,opt,name=message,proto3" json:"message,omitempty"`

	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *DiagnosticProto) Reset()         { *m = DiagnosticProto{} }
func (m *DiagnosticProto) String() string { return proto.CompactTextString(m) }
func (*DiagnosticProto) ProtoMessage()    {}

func (m *DiagnosticProto) GetPath() string {
	if m != nil {
		return m.Path
	}
	return ""
}

func (m *DiagnosticProto) GetLine() int32 {
	if m != nil {
		return m.Line
	}
	return 0
}

func (m *DiagnosticProto) GetColumn() int32 {
	if m != nil {
		return m.Column
	}
	return 0
}

func (m *DiagnosticProto) GetSeverity() string {
	if m != nil {
		return m.Severity
	}
	return ""
}

func (m *DiagnosticProto) GetMessage() string {
	if m != nil {
		return m.Message
	}
	return ""
}

// EventKind enumerates CompileEvent.Kind. Values line up with
// internal/mirror.ActionKind plus a terminal Done kind.
type EventKind int32

const (
	EventUnknown EventKind = iota
	EventStartCompilation
	EventStartIncrementalCycle
	EventProblem
	EventDiagnosticsSummary
	EventNextPhase
	EventProgress
	EventEndIncrementalCycle
	EventCancelled
	EventEndCompilation
	EventLog
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventStartCompilation:
		return "start_compilation"
	case EventStartIncrementalCycle:
		return "start_incremental_cycle"
	case EventProblem:
		return "problem"
	case EventDiagnosticsSummary:
		return "diagnostics_summary"
	case EventNextPhase:
		return "next_phase"
	case EventProgress:
		return "progress"
	case EventEndIncrementalCycle:
		return "end_incremental_cycle"
	case EventCancelled:
		return "cancelled"
	case EventEndCompilation:
		return "end_compilation"
	case EventLog:
		return "log"
	case EventDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int32(k))
	}
}

// CompileEvent is one message of the Compile RPC's response stream: either
// a replayed reporter/logger action, or the terminal Done event carrying
// the final result.
type CompileEvent struct {
	Kind       int32            `protobuf:"varint,1,opt,name=kind,proto3" json:"kind,omitempty"`
	Project    string           `protobuf:"bytes,2,opt,name=project,proto3" json:"project,omitempty"`
	Message    string           `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
	Diagnostic *DiagnosticProto `protobuf:"bytes,4,opt,name=diagnostic,proto3" json:"diagnostic,omitempty"`
	Phase      string           `protobuf:"bytes,5,opt,name=phase,proto3" json:"phase,omitempty"`
	Current    int32            `protobuf:"varint,6,opt,name=current,proto3" json:"current,omitempty"`
	Total      int32            `protobuf:"varint,7,opt,name=total,proto3" json:"total,omitempty"`
	DurationMs int64            `protobuf:"varint,8,opt,name=duration_ms,json=durationMs,proto3" json:"duration_ms,omitempty"`
	Code       int32            `protobuf:"varint,9,opt,name=code,proto3" json:"code,omitempty"`
	Status     string           `protobuf:"bytes,10,opt,name=status,proto3" json:"status,omitempty"`
	ClassesDir string           `protobuf:"bytes,11,opt,name=classes_dir,json=classesDir,proto3" json:"classes_dir,omitempty"`

	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *CompileEvent) Reset()         { *m = CompileEvent{} }
func (m *CompileEvent) String() string { return proto.CompactTextString(m) }
func (*CompileEvent) ProtoMessage()    {}

func (m *CompileEvent) GetKind() int32 {
	if m != nil {
		return m.Kind
	}
	return 0
}

func (m *CompileEvent) GetProject() string {
	if m != nil {
		return m.Project
	}
	return ""
}

func (m *CompileEvent) GetMessage() string {
	if m != nil {
		return m.Message
	}
	return ""
}

func (m *CompileEvent) GetDiagnostic() *DiagnosticProto {
	if m != nil {
		return m.Diagnostic
	}
	return nil
}

func (m *CompileEvent) GetPhase() string {
	if m != nil {
		return m.Phase
	}
	return ""
}

func (m *CompileEvent) GetCurrent() int32 {
	if m != nil {
		return m.Current
	}
	return 0
}

func (m *CompileEvent) GetTotal() int32 {
	if m != nil {
		return m.Total
	}
	return 0
}

func (m *CompileEvent) GetDurationMs() int64 {
	if m != nil {
		return m.DurationMs
	}
	return 0
}

func (m *CompileEvent) GetCode() int32 {
	if m != nil {
		return m.Code
	}
	return 0
}

func (m *CompileEvent) GetStatus() string {
	if m != nil {
		return m.Status
	}
	return ""
}

func (m *CompileEvent) GetClassesDir() string {
	if m != nil {
		return m.ClassesDir
	}
	return ""
}
