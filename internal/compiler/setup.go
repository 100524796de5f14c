// Package compiler provides the external compile() collaborator contract
// (spec.md §6) plus a reference Setup and a deterministic fake Compile used
// by tests to exercise pipelined timing without invoking a real javac/scalac.
package compiler

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/bloopbuild/bloopd/internal/model"
)

// Setup derives a CompileBundle from BundleInputs by hashing sources,
// classpath, and options into a fingerprint, the same digest-of-inputs
// idiom internal/build/build.go's Ctx.Digest uses (fnv.New128a over the
// build description plus every dependency and patch file), generalized
// from hashing a single build.textproto to hashing three string lists.
func Setup(reporter model.Reporter, logger model.Logger) model.SetupFunc {
	return func(ctx context.Context, in model.BundleInputs) (*model.CompileBundle, error) {
		return &model.CompileBundle{
			Project: in.Project,
			Fingerprint: model.OracleInputs{
				Project:         in.Project,
				SourcesDigest:   digest(in.Sources),
				ClasspathDigest: digest(in.Classpath),
				OptionsDigest:   digest(in.Options),
			},
			Reporter: reporter,
			Logger:   logger,
		}, nil
	}
}

func digest(parts []string) string {
	h := fnv.New128a()
	h.Write([]byte(strings.Join(parts, "\x00")))
	return string(h.Sum(nil))
}
