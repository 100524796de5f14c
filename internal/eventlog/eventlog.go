// Package eventlog persists a compilation's mirror.Action stream to disk as
// a gob-encoded, parallel-gzip-compressed log, the compression
// internal/install/install.go's own author flagged as worth adopting
// ("TODO: consider github.com/klauspost/pgzip") but never wired up.
// Persisted logs let a client that crashed mid-compile, or an operator
// after the fact, replay a compilation's diagnostics without having been
// subscribed to its mirror while it ran.
package eventlog

import (
	"context"
	"encoding/gob"
	"io"
	"os"

	"github.com/bloopbuild/bloopd/internal/mirror"
	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"
)

// Writer appends Actions to a compressed log file. Not safe for concurrent
// use by multiple goroutines; callers pair it with the single goroutine
// draining a mirror.Subscription.
type Writer struct {
	f   *os.File
	gz  *pgzip.Writer
	enc *gob.Encoder
}

// Create opens path for writing, truncating any existing log.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, xerrors.Errorf("creating event log %s: %w", path, err)
	}
	gz, err := pgzip.NewWriterLevel(f, pgzip.BestSpeed)
	if err != nil {
		f.Close()
		return nil, xerrors.Errorf("initializing pgzip writer for %s: %w", path, err)
	}
	return &Writer{f: f, gz: gz, enc: gob.NewEncoder(gz)}, nil
}

// Append records a into the gzip stream. The record is buffered there and
// is only guaranteed to reach the underlying file once Close flushes it.
func (w *Writer) Append(a mirror.Action) error {
	if err := w.enc.Encode(&a); err != nil {
		return xerrors.Errorf("appending event log record: %w", err)
	}
	return nil
}

// Close flushes the gzip stream and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.gz.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Drain subscribes to m's full history and appends every event until the
// stream closes, then closes w. Intended to run in its own goroutine,
// alongside a live mirror, the same way internal/dedup.ReplayTo drains a
// subscription for a live reporter/logger pair.
func Drain(m *mirror.Mirror, w *Writer) error {
	sub := m.Subscribe()
	for _, a := range sub.All(context.Background()) {
		if err := w.Append(a); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// ReadAll decompresses and decodes every Action recorded at path, in
// emission order.
func ReadAll(path string) ([]mirror.Action, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening event log %s: %w", path, err)
	}
	defer f.Close()
	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, xerrors.Errorf("initializing pgzip reader for %s: %w", path, err)
	}
	defer gz.Close()

	dec := gob.NewDecoder(gz)
	var out []mirror.Action
	for {
		var a mirror.Action
		if err := dec.Decode(&a); err != nil {
			if err == io.EOF {
				break
			}
			return nil, xerrors.Errorf("decoding event log %s: %w", path, err)
		}
		out = append(out, a)
	}
	return out, nil
}
