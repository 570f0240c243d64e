// Package pipeline composes typed aggregation stages over document
// collections. A Pipeline is validated once when it is built, can be compiled
// to a MongoDB aggregation, and can be evaluated in process against plain
// documents.
package pipeline

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrUnknownField is returned by Build when a stage references a field
	// that no earlier stage produced.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidStage is returned by Build when a stage is malformed or out of order.
	ErrInvalidStage = errors.New("invalid stage")
)

// Schema names a collection and the top-level fields its documents carry.
type Schema struct {
	Collection string
	Fields     []string
}

func (s Schema) fieldSet() fieldSet {
	set := fieldSet{known: map[string]struct{}{"_id": {}}, joined: map[string]struct{}{}}
	for _, f := range s.Fields {
		set.known[f] = struct{}{}
	}
	return set
}

// Stage is a single step of a pipeline. The concrete stage types are Filter,
// Join, Unwind, DeriveField, Project, Sort and Group.
type Stage interface {
	kind() string
	// check validates the stage against the fields produced so far and
	// returns the field set that follows it.
	check(in fieldSet, first bool) (fieldSet, error)
	stage() bson.D
	eval(ev *evaluator, rows []Document) ([]Document, error)
}

// Pipeline is a validated, ordered sequence of stages rooted at a collection.
type Pipeline struct {
	Collection string
	Stages     []Stage
}

// BSON compiles the pipeline into the aggregation form MongoDB executes.
func (p Pipeline) BSON() mongo.Pipeline {
	return compileStages(p.Stages)
}

// Builder accumulates stages for a collection. Errors are reported by Build.
type Builder struct {
	schema Schema
	stages []Stage
}

// NewBuilder starts a pipeline over the collection described by schema.
func NewBuilder(schema Schema) *Builder {
	return &Builder{schema: schema}
}

// Add appends stages in order.
func (b *Builder) Add(stages ...Stage) *Builder {
	b.stages = append(b.stages, stages...)
	return b
}

// Build validates the accumulated stages and returns the pipeline.
func (b *Builder) Build() (Pipeline, error) {
	if b.schema.Collection == "" {
		return Pipeline{}, fmt.Errorf("%w: pipeline has no collection", ErrInvalidStage)
	}
	if _, err := checkStages(b.schema, b.stages); err != nil {
		return Pipeline{}, err
	}
	stages := make([]Stage, len(b.stages))
	copy(stages, b.stages)
	return Pipeline{Collection: b.schema.Collection, Stages: stages}, nil
}

// New is shorthand for NewBuilder(schema).Add(stages...).Build().
func New(schema Schema, stages ...Stage) (Pipeline, error) {
	return NewBuilder(schema).Add(stages...).Build()
}

func checkStages(schema Schema, stages []Stage) (fieldSet, error) {
	fields := schema.fieldSet()
	for i, st := range stages {
		if st == nil {
			return fields, fmt.Errorf("stage %d: %w: nil stage", i, ErrInvalidStage)
		}
		next, err := st.check(fields, i == 0)
		if err != nil {
			return fields, fmt.Errorf("%s stage %d (%s): %w", schema.Collection, i, st.kind(), err)
		}
		fields = next
	}
	return fields, nil
}

func compileStages(stages []Stage) mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(stages))
	for _, st := range stages {
		out = append(out, st.stage())
	}
	return out
}

// fieldSet tracks the top-level fields available at a point in a pipeline and
// which of them were produced by a Join.
type fieldSet struct {
	known  map[string]struct{}
	joined map[string]struct{}
}

func (f fieldSet) clone() fieldSet {
	out := fieldSet{known: make(map[string]struct{}, len(f.known)), joined: make(map[string]struct{}, len(f.joined))}
	for k := range f.known {
		out.known[k] = struct{}{}
	}
	for k := range f.joined {
		out.joined[k] = struct{}{}
	}
	return out
}

func (f fieldSet) has(path string) bool {
	_, ok := f.known[root(path)]
	return ok
}

func (f fieldSet) require(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			return fmt.Errorf("%w: empty field path", ErrInvalidStage)
		}
		if !f.has(p) {
			return fmt.Errorf("%w %q", ErrUnknownField, p)
		}
	}
	return nil
}
