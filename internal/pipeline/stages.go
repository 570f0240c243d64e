package pipeline

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// Filter keeps the rows matching Where.
type Filter struct {
	Where Predicate
}

// Match is shorthand for a Filter stage.
func Match(where Predicate) Filter { return Filter{Where: where} }

func (Filter) kind() string { return "filter" }

func (s Filter) check(in fieldSet, first bool) (fieldSet, error) {
	if s.Where == nil {
		return in, fmt.Errorf("%w: filter without predicate", ErrInvalidStage)
	}
	if s.Where.isText() && !first {
		return in, fmt.Errorf("%w: text search must be the first stage", ErrInvalidStage)
	}
	return in, in.require(s.Where.refs()...)
}

func (s Filter) stage() bson.D { return bson.D{{Key: "$match", Value: s.Where.compile()}} }

// Join is a left outer join. Every row gains the list of foreign documents
// whose ForeignField equals its LocalField under As. Pipeline, when set, runs
// over the matched foreign documents before they are attached.
type Join struct {
	From         Schema
	LocalField   string
	ForeignField string
	As           string
	Pipeline     []Stage
}

func (Join) kind() string { return "join" }

func (s Join) check(in fieldSet, _ bool) (fieldSet, error) {
	if s.From.Collection == "" || s.As == "" || s.ForeignField == "" {
		return in, fmt.Errorf("%w: join needs a collection, foreign field and output field", ErrInvalidStage)
	}
	if err := in.require(s.LocalField); err != nil {
		return in, err
	}
	foreign := s.From.fieldSet()
	if err := foreign.require(s.ForeignField); err != nil {
		return in, fmt.Errorf("join %s: %w", s.From.Collection, err)
	}
	if _, err := checkStages(s.From, s.Pipeline); err != nil {
		return in, fmt.Errorf("join %s: %w", s.From.Collection, err)
	}
	out := in.clone()
	out.known[s.As] = struct{}{}
	out.joined[s.As] = struct{}{}
	return out, nil
}

func (s Join) stage() bson.D {
	lookup := bson.D{
		{Key: "from", Value: s.From.Collection},
		{Key: "localField", Value: s.LocalField},
		{Key: "foreignField", Value: s.ForeignField},
		{Key: "as", Value: s.As},
	}
	if len(s.Pipeline) > 0 {
		lookup = append(lookup, bson.E{Key: "pipeline", Value: compileStages(s.Pipeline)})
	}
	return bson.D{{Key: "$lookup", Value: lookup}}
}

// Unwind emits one row per element of the list at Path. Rows whose list is
// empty or missing are dropped unless PreserveEmpty is set.
type Unwind struct {
	Path          string
	PreserveEmpty bool
}

// UnwindOrNull keeps rows with an empty list, leaving Path unset.
func UnwindOrNull(path string) Unwind { return Unwind{Path: path, PreserveEmpty: true} }

func (Unwind) kind() string { return "unwind" }

func (s Unwind) check(in fieldSet, _ bool) (fieldSet, error) {
	if err := in.require(s.Path); err != nil {
		return in, err
	}
	if _, ok := in.joined[root(s.Path)]; !ok {
		return in, fmt.Errorf("%w: unwind of %q does not follow a join producing it", ErrInvalidStage, s.Path)
	}
	return in, nil
}

func (s Unwind) stage() bson.D {
	if !s.PreserveEmpty {
		return bson.D{{Key: "$unwind", Value: "$" + s.Path}}
	}
	return bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: "$" + s.Path},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}}
}

// DeriveField sets Name to the value of Expr.
type DeriveField struct {
	Name string
	Expr Expr
}

// Derive is shorthand for a DeriveField stage.
func Derive(name string, expr Expr) DeriveField { return DeriveField{Name: name, Expr: expr} }

func (DeriveField) kind() string { return "derive" }

func (s DeriveField) check(in fieldSet, _ bool) (fieldSet, error) {
	if s.Name == "" || s.Expr == nil {
		return in, fmt.Errorf("%w: derived field needs a name and an expression", ErrInvalidStage)
	}
	if err := in.require(s.Expr.refs()...); err != nil {
		return in, fmt.Errorf("derive %q: %w", s.Name, err)
	}
	out := in.clone()
	out.known[root(s.Name)] = struct{}{}
	delete(out.joined, root(s.Name))
	return out, nil
}

func (s DeriveField) stage() bson.D {
	return bson.D{{Key: "$addFields", Value: bson.D{{Key: s.Name, Value: s.Expr.compile()}}}}
}

// Project keeps only Paths (dotted sub-paths allowed) and _id unless ExcludeID.
type Project struct {
	Paths     []string
	ExcludeID bool
}

// Keep is shorthand for a Project stage that retains _id.
func Keep(paths ...string) Project { return Project{Paths: paths} }

func (Project) kind() string { return "project" }

func (s Project) check(in fieldSet, _ bool) (fieldSet, error) {
	if len(s.Paths) == 0 {
		return in, fmt.Errorf("%w: empty projection", ErrInvalidStage)
	}
	if err := in.require(s.Paths...); err != nil {
		return in, err
	}
	out := fieldSet{known: map[string]struct{}{}, joined: map[string]struct{}{}}
	if !s.ExcludeID {
		out.known["_id"] = struct{}{}
	}
	for _, p := range s.Paths {
		r := root(p)
		out.known[r] = struct{}{}
		if _, ok := in.joined[r]; ok {
			out.joined[r] = struct{}{}
		}
	}
	return out, nil
}

func (s Project) stage() bson.D {
	spec := bson.D{}
	if s.ExcludeID {
		spec = append(spec, bson.E{Key: "_id", Value: 0})
	}
	for _, p := range s.Paths {
		spec = append(spec, bson.E{Key: p, Value: 1})
	}
	return bson.D{{Key: "$project", Value: spec}}
}

// Direction orders a sort key.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// SortKey is one field of a Sort stage.
type SortKey struct {
	Field     string
	Direction Direction
}

// Sort orders rows by Keys, earlier keys first. Ties keep their input order.
type Sort struct {
	Keys []SortKey
}

// SortBy is shorthand for a single-key Sort stage.
func SortBy(field string, dir Direction) Sort {
	return Sort{Keys: []SortKey{{Field: field, Direction: dir}}}
}

func (Sort) kind() string { return "sort" }

func (s Sort) check(in fieldSet, _ bool) (fieldSet, error) {
	if len(s.Keys) == 0 {
		return in, fmt.Errorf("%w: sort without keys", ErrInvalidStage)
	}
	for _, k := range s.Keys {
		if k.Direction != Ascending && k.Direction != Descending {
			return in, fmt.Errorf("%w: bad direction %d for %q", ErrInvalidStage, k.Direction, k.Field)
		}
		if err := in.require(k.Field); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (s Sort) stage() bson.D {
	spec := bson.D{}
	for _, k := range s.Keys {
		spec = append(spec, bson.E{Key: k.Field, Value: int(k.Direction)})
	}
	return bson.D{{Key: "$sort", Value: spec}}
}

// Accumulator folds the rows of a group into one output field.
type Accumulator struct {
	Name string
	// Of is summed over the rows of the group.
	Of Expr
}

// SumOf accumulates the sum of expr under name.
func SumOf(name string, expr Expr) Accumulator { return Accumulator{Name: name, Of: expr} }

// CountAs accumulates the number of rows under name.
func CountAs(name string) Accumulator { return Accumulator{Name: name, Of: Literal(1)} }

// Group collapses rows sharing Key into one row holding _id and the
// accumulators. A nil Key groups every row together.
type Group struct {
	Key          Expr
	Accumulators []Accumulator
}

func (Group) kind() string { return "group" }

func (s Group) check(in fieldSet, _ bool) (fieldSet, error) {
	if s.Key != nil {
		if err := in.require(s.Key.refs()...); err != nil {
			return in, err
		}
	}
	out := fieldSet{known: map[string]struct{}{"_id": {}}, joined: map[string]struct{}{}}
	for _, acc := range s.Accumulators {
		if acc.Name == "" || acc.Name == "_id" || acc.Of == nil {
			return in, fmt.Errorf("%w: malformed accumulator %q", ErrInvalidStage, acc.Name)
		}
		if err := in.require(acc.Of.refs()...); err != nil {
			return in, fmt.Errorf("accumulator %q: %w", acc.Name, err)
		}
		out.known[acc.Name] = struct{}{}
	}
	return out, nil
}

func (s Group) stage() bson.D {
	var key any
	if s.Key != nil {
		key = s.Key.compile()
	}
	spec := bson.D{{Key: "_id", Value: key}}
	for _, acc := range s.Accumulators {
		var of any = acc.Of.compile()
		if lit, ok := acc.Of.(literalExpr); ok {
			of = lit.value
		}
		spec = append(spec, bson.E{Key: acc.Name, Value: bson.D{{Key: "$sum", Value: of}}})
	}
	return bson.D{{Key: "$group", Value: spec}}
}

func (s Filter) eval(_ *evaluator, rows []Document) ([]Document, error) {
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		if s.Where.matches(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s Join) eval(ev *evaluator, rows []Document) ([]Document, error) {
	foreign, err := ev.documents(s.From.Collection)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		local, ok := resolve(row, s.LocalField)
		if !ok {
			local = nil
		}
		locals := flattenWithSelf(local)
		var matched []Document
		for _, doc := range foreign {
			fv, ok := resolve(doc, s.ForeignField)
			if !ok {
				fv = nil
			}
			if anyEqual(locals, flattenWithSelf(fv)) {
				matched = append(matched, doc)
			}
		}
		if len(s.Pipeline) > 0 {
			if matched, err = ev.run(s.Pipeline, matched); err != nil {
				return nil, err
			}
		}
		list := make([]any, 0, len(matched))
		for _, m := range matched {
			list = append(list, m)
		}
		next := row.clone()
		next[s.As] = list
		out = append(out, next)
	}
	return out, nil
}

func (s Unwind) eval(_ *evaluator, rows []Document) ([]Document, error) {
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		v, _ := resolve(row, s.Path)
		list, isList := v.([]any)
		switch {
		case isList && len(list) > 0:
			for _, elem := range list {
				next := row.clone()
				setPath(next, s.Path, elem)
				out = append(out, next)
			}
		case !isList && v != nil:
			out = append(out, row)
		case s.PreserveEmpty:
			next := row.clone()
			unsetPath(next, s.Path)
			out = append(out, next)
		}
	}
	return out, nil
}

func (s DeriveField) eval(_ *evaluator, rows []Document) ([]Document, error) {
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		next := row.clone()
		setPath(next, s.Name, s.Expr.evaluate(row))
		out = append(out, next)
	}
	return out, nil
}

func (s Project) eval(_ *evaluator, rows []Document) ([]Document, error) {
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		next := Document{}
		if !s.ExcludeID {
			if id, ok := row["_id"]; ok {
				next["_id"] = id
			}
		}
		for _, p := range s.Paths {
			projectInto(next, row, splitPath(p))
		}
		out = append(out, next)
	}
	return out, nil
}

func (s Sort) eval(_ *evaluator, rows []Document) ([]Document, error) {
	out := make([]Document, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range s.Keys {
			a, _ := resolve(out[i], k.Field)
			b, _ := resolve(out[j], k.Field)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if k.Direction == Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out, nil
}

func (s Group) eval(_ *evaluator, rows []Document) ([]Document, error) {
	type bucket struct {
		key  any
		sums []any
	}
	var order []string
	buckets := map[string]*bucket{}
	for _, row := range rows {
		var key any
		if s.Key != nil {
			key = s.Key.evaluate(row)
		}
		k := fmt.Sprintf("%T:%v", key, key)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{key: key, sums: make([]any, len(s.Accumulators))}
			for i := range b.sums {
				b.sums[i] = int64(0)
			}
			buckets[k] = b
			order = append(order, k)
		}
		for i, acc := range s.Accumulators {
			b.sums[i] = sumValues([]any{b.sums[i], acc.Of.evaluate(row)})
		}
	}
	out := make([]Document, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		doc := Document{"_id": b.key}
		for i, acc := range s.Accumulators {
			doc[acc.Name] = b.sums[i]
		}
		out = append(out, doc)
	}
	return out, nil
}
