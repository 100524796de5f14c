// Package model holds the data types shared across the scheduler's
// internal packages: projects, fingerprints, compile bundles, results, and
// the sum types of the result algebra. It has no scheduling logic of its
// own — that lives in internal/graph, internal/dedup, internal/outputs and
// internal/sched — so that those packages can depend on one stable,
// cycle-free vocabulary.
package model

import "fmt"

// Project is an opaque handle with stable identity. Equality governs reuse
// in the traversal's memo table and in the deduplication and
// last-successful-result maps, so Project must stay a small comparable
// struct — no slices, no maps, no funcs.
type Project struct {
	Name   string
	Config string // opaque caller-controlled configuration fingerprint
}

func (p Project) String() string { return p.Name }

// OracleInputs is the compile-fingerprint: a value derived from a project's
// sources, classpath, and options that uniquely identifies a compilation.
// Two concurrent requests with equal fingerprints share one execution. It is
// a plain comparable struct so Go's built-in == and map-key semantics
// already supply the "equality and hash" spec.md §3 requires — no Equal or
// Hash methods needed.
type OracleInputs struct {
	Project         Project
	SourcesDigest   string
	ClasspathDigest string
	OptionsDigest   string
}

func (o OracleInputs) String() string {
	return fmt.Sprintf("%s@%s-%s-%s", o.Project.Name, o.SourcesDigest, o.ClasspathDigest, o.OptionsDigest)
}

// BundleInputs are the raw, caller-supplied parameters from which setup()
// derives a CompileBundle (and therefore a fingerprint). Equal BundleInputs
// must produce bundles with equal fingerprints — that determinism is the
// caller's obligation (spec.md §6).
type BundleInputs struct {
	Project   Project
	Sources   []string
	Classpath []string
	Options   []string
}

// ClientInfo is supplied by the caller and used to locate the per-client
// destination for post-deduplication copies (spec.md §6).
type ClientInfo interface {
	GetUniqueClassesDirFor(p Project) (string, error)
}
