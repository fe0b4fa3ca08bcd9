// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package osmix

import "github.com/conveyal/osmix-sub003/internal/obslog"

// ExtractPolicy selects how a bbox extract handles entities whose
// references cross the boundary.
type ExtractPolicy string

const (
	// ExtractSimple keeps the nodes inside the bbox, the ways that reference
	// at least one of them (dropping refs that fall outside), and the
	// relations with at least one such node or way as a member.
	ExtractSimple ExtractPolicy = "simple"
	// ExtractCompleteWays keeps every node referenced by an included way,
	// even outside the bbox, and likewise completes the direct members of
	// every included relation.
	ExtractCompleteWays ExtractPolicy = "complete_ways"
	// ExtractSmart behaves exactly like ExtractCompleteWays.
	ExtractSmart ExtractPolicy = "smart"
)

// Options configures ingest, dedupe, intersection, and encode behavior. It
// is YAML-decodable (`gopkg.in/yaml.v3`) for file-based configuration, and
// also constructible programmatically via the With* functional options
// below.
type Options struct {
	StrictMode                  bool          `yaml:"strict_mode"`
	DedupeStrictToleranceMeters float64       `yaml:"dedupe_strict_tolerance_meters"`
	DedupeCandidateRadiusMeters float64       `yaml:"dedupe_candidate_radius_meters"`
	MaxEntitiesPerBlock         int           `yaml:"max_entities_per_block"`
	ParseConcurrency            int           `yaml:"parse_concurrency"`
	ExtractPolicy               ExtractPolicy `yaml:"extract_policy"`
	RelationMaxDepth            int           `yaml:"relation_max_depth"`

	Logger   *obslog.Logger   `yaml:"-"`
	Progress ProgressListener `yaml:"-"`
}

// DefaultOptions returns the baseline configuration: permissive mode, a
// 1mm strict-match / 10m candidate dedupe radius, 8000 entities/block,
// single-threaded parse, simple extract policy, depth-10 relation
// resolution, and a no-op logger.
func DefaultOptions() Options {
	return Options{
		StrictMode:                  false,
		DedupeStrictToleranceMeters: 0.001,
		DedupeCandidateRadiusMeters: 10,
		MaxEntitiesPerBlock:         8000,
		ParseConcurrency:            1,
		ExtractPolicy:               ExtractSimple,
		RelationMaxDepth:            10,
		Logger:                      obslog.Nop(),
	}
}

// Option is a configuration setting applied on top of DefaultOptions.
//
// This is a struct rather than a func(*Options), matching the teacher's
// CompileOption/UnmarshalOption shape: it keeps the option type nominal so
// callers can't accidentally pass an arbitrary closure with the wrong
// intent.
type Option struct{ apply func(*Options) }

func newOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// WithLogger attaches a structured logger; nil restores the no-op logger.
func WithLogger(l *obslog.Logger) Option {
	return Option{func(o *Options) {
		if l == nil {
			l = obslog.Nop()
		}
		o.Logger = l
	}}
}

// WithProgressListener attaches a progress-event sink.
func WithProgressListener(l ProgressListener) Option {
	return Option{func(o *Options) { o.Progress = l }}
}

// WithStrictMode sets Options.StrictMode. No ingest or indexing step reads
// it: missing references are neither reported as errors nor counted in
// stats, whichever value it has.
func WithStrictMode(strict bool) Option {
	return Option{func(o *Options) { o.StrictMode = strict }}
}

// WithDedupeTolerance sets the strict-match and candidate-list radii (in
// meters) used by the node deduplication pass.
func WithDedupeTolerance(strictMeters, candidateMeters float64) Option {
	return Option{func(o *Options) {
		o.DedupeStrictToleranceMeters = strictMeters
		o.DedupeCandidateRadiusMeters = candidateMeters
	}}
}

// WithMaxEntitiesPerBlock overrides the PBF encoder's entities-per-block
// chunk size (spec default ~8000).
func WithMaxEntitiesPerBlock(n int) Option {
	return Option{func(o *Options) {
		if n > 0 {
			o.MaxEntitiesPerBlock = n
		}
	}}
}

// WithParseConcurrency sets the PBF decode worker-pool size. 1 (the
// default) decodes serially on the calling goroutine.
func WithParseConcurrency(n int) Option {
	return Option{func(o *Options) {
		if n > 0 {
			o.ParseConcurrency = n
		}
	}}
}

// WithExtractPolicy selects the bbox-extract completeness policy.
func WithExtractPolicy(p ExtractPolicy) Option {
	return Option{func(o *Options) { o.ExtractPolicy = p }}
}

// WithRelationMaxDepth overrides the recursion depth budget for relation
// geometry resolution (spec default 10).
func WithRelationMaxDepth(n int) Option {
	return Option{func(o *Options) {
		if n > 0 {
			o.RelationMaxDepth = n
		}
	}}
}
