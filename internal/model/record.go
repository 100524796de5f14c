package model

import "github.com/bloopbuild/bloopd/internal/mirror"

// RecordingReporter forwards every call to an underlying Reporter and
// simultaneously publishes it to a Mirror, so late-joining deduplicated
// subscribers can replay the same sequence (spec.md §4.3/§4.7).
type RecordingReporter struct {
	Real Reporter
	M    *mirror.Mirror
}

func (r RecordingReporter) StartCompilation(p Project) {
	r.Real.StartCompilation(p)
	r.M.Publish(mirror.Action{Kind: mirror.ReporterStartCompilation, Project: p.Name})
}

func (r RecordingReporter) StartIncrementalCycle(p Project, sources, outputDirs []string) {
	r.Real.StartIncrementalCycle(p, sources, outputDirs)
	r.M.Publish(mirror.Action{
		Kind:       mirror.ReporterStartIncrementalCycle,
		Project:    p.Name,
		Sources:    sources,
		OutputDirs: outputDirs,
	})
}

func (r RecordingReporter) Problem(p Project, d Diagnostic) {
	r.Real.Problem(p, d)
	r.M.Publish(mirror.Action{
		Kind:     mirror.ReporterProblem,
		Project:  p.Name,
		Path:     d.Path,
		Line:     d.Line,
		Column:   d.Column,
		Severity: d.Severity,
		Message:  d.Message,
	})
}

func (r RecordingReporter) DiagnosticsSummary(p Project, summary string) {
	r.Real.DiagnosticsSummary(p, summary)
	r.M.Publish(mirror.Action{Kind: mirror.ReporterDiagnosticsSummary, Project: p.Name, Message: summary})
}

func (r RecordingReporter) NextPhase(p Project, phase string) {
	r.Real.NextPhase(p, phase)
	r.M.Publish(mirror.Action{Kind: mirror.ReporterNextPhase, Project: p.Name, Phase: phase})
}

func (r RecordingReporter) Progress(p Project, current, total int) {
	r.Real.Progress(p, current, total)
	r.M.Publish(mirror.Action{Kind: mirror.ReporterProgress, Project: p.Name, Current: current, Total: total})
}

func (r RecordingReporter) EndIncrementalCycle(p Project, durationMs int64, result string) {
	r.Real.EndIncrementalCycle(p, durationMs, result)
	r.M.Publish(mirror.Action{
		Kind:       mirror.ReporterEndIncrementalCycle,
		Project:    p.Name,
		DurationMs: durationMs,
		Result:     result,
	})
}

func (r RecordingReporter) Cancelled(p Project) {
	r.Real.Cancelled(p)
	r.M.Publish(mirror.Action{Kind: mirror.ReporterCancelled, Project: p.Name})
}

func (r RecordingReporter) EndCompilation(p Project, exitCode int) {
	r.Real.EndCompilation(p, exitCode)
	r.M.Publish(mirror.Action{Kind: mirror.ReporterEndCompilation, Project: p.Name, Code: exitCode})
}

// RecordingLogger forwards every call to an underlying Logger and publishes
// it to a Mirror. Trace is demoted to Debug on replay, per Table 1.
type RecordingLogger struct {
	Real Logger
	M    *mirror.Mirror
}

func (l RecordingLogger) Errorf(format string, args ...interface{}) {
	l.Real.Errorf(format, args...)
	l.M.Publish(mirror.Action{Kind: mirror.LoggerError, Message: sprintf(format, args...)})
}

func (l RecordingLogger) Warnf(format string, args ...interface{}) {
	l.Real.Warnf(format, args...)
	l.M.Publish(mirror.Action{Kind: mirror.LoggerWarn, Message: sprintf(format, args...)})
}

func (l RecordingLogger) Infof(format string, args ...interface{}) {
	l.Real.Infof(format, args...)
	l.M.Publish(mirror.Action{Kind: mirror.LoggerInfo, Message: sprintf(format, args...)})
}

func (l RecordingLogger) Debugf(format string, args ...interface{}) {
	l.Real.Debugf(format, args...)
	l.M.Publish(mirror.Action{Kind: mirror.LoggerDebug, Message: sprintf(format, args...)})
}

func (l RecordingLogger) Tracef(format string, args ...interface{}) {
	l.Real.Tracef(format, args...)
	// Demoted to debug in the replayed stream, per Table 1.
	l.M.Publish(mirror.Action{Kind: mirror.LoggerDebug, Message: sprintf(format, args...)})
}
