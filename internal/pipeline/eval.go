package pipeline

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the in-process form of a stored document. Nested documents are
// Documents, lists are []any, integers are int64 and timestamps are
// primitive.DateTime.
type Document map[string]any

func (d Document) clone() Document {
	out := make(Document, len(d)+2)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Source supplies the documents of a collection for in-process evaluation.
// Returned documents are never mutated by the evaluator.
type Source interface {
	Documents(collection string) ([]Document, error)
}

// Evaluate runs the pipeline in process against src. Each collection is read
// once per evaluation.
func (p Pipeline) Evaluate(src Source) ([]Document, error) {
	ev := &evaluator{src: src, cache: map[string][]Document{}}
	rows, err := ev.documents(p.Collection)
	if err != nil {
		return nil, err
	}
	return ev.run(p.Stages, rows)
}

type evaluator struct {
	src   Source
	cache map[string][]Document
}

func (ev *evaluator) documents(collection string) ([]Document, error) {
	if docs, ok := ev.cache[collection]; ok {
		return docs, nil
	}
	docs, err := ev.src.Documents(collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	ev.cache[collection] = docs
	return docs, nil
}

func (ev *evaluator) run(stages []Stage, rows []Document) ([]Document, error) {
	var err error
	for _, st := range stages {
		if rows, err = st.eval(ev, rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Normalize converts decoded BSON values into the Document representation.
func Normalize(v any) any { return normalize(v) }

func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Document:
		out := make(Document, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	case bson.M:
		out := make(Document, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	case map[string]any:
		out := make(Document, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	case bson.D:
		out := make(Document, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case []primitive.ObjectID:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return primitive.NewDateTimeFromTime(t)
	default:
		return v
	}
}

func root(path string) string {
	head, _, _ := strings.Cut(path, ".")
	return head
}

func splitPath(path string) []string { return strings.Split(path, ".") }

// resolve reads the value at a dotted path. Crossing a list maps the rest of
// the path over its elements.
func resolve(doc Document, path string) (any, bool) {
	return lookup(doc, splitPath(path))
}

func lookup(v any, parts []string) (any, bool) {
	if len(parts) == 0 {
		return v, true
	}
	switch t := v.(type) {
	case Document:
		next, ok := t[parts[0]]
		if !ok {
			return nil, false
		}
		return lookup(next, parts[1:])
	case []any:
		out := make([]any, 0, len(t))
		for _, elem := range t {
			if r, ok := lookup(elem, parts); ok {
				out = append(out, r)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func setPath(doc Document, path string, value any) {
	parts := splitPath(path)
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		child, _ := cur[p].(Document)
		if child == nil {
			child = Document{}
		} else {
			child = child.clone()
		}
		cur[p] = child
		cur = child
	}
	cur[parts[len(parts)-1]] = value
}

func unsetPath(doc Document, path string) {
	parts := splitPath(path)
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		child, ok := cur[p].(Document)
		if !ok {
			return
		}
		child = child.clone()
		cur[p] = child
		cur = child
	}
	delete(cur, parts[len(parts)-1])
}

func projectInto(dst, src Document, parts []string) {
	v, ok := src[parts[0]]
	if !ok {
		return
	}
	if len(parts) == 1 {
		dst[parts[0]] = v
		return
	}
	switch t := v.(type) {
	case Document:
		child, _ := dst[parts[0]].(Document)
		if child == nil {
			child = Document{}
			dst[parts[0]] = child
		}
		projectInto(child, t, parts[1:])
	case []any:
		existing, _ := dst[parts[0]].([]any)
		if len(existing) != len(t) {
			existing = make([]any, len(t))
			for i := range existing {
				existing[i] = Document{}
			}
		}
		for i, elem := range t {
			em, ok := elem.(Document)
			if !ok {
				continue
			}
			if child, ok := existing[i].(Document); ok {
				projectInto(child, em, parts[1:])
			}
		}
		dst[parts[0]] = existing
	}
}

func flatten(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{v}
	}
}

// flattenWithSelf lists the values an equality match is tried against: the
// elements of a list plus the list itself.
func flattenWithSelf(v any) []any {
	if list, ok := v.([]any); ok {
		return append(append([]any{}, list...), v)
	}
	return []any{v}
}

func anyEqual(as, bs []any) bool {
	for _, a := range as {
		for _, b := range bs {
			if compareValues(a, b) == 0 {
				return true
			}
		}
	}
	return false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func sumValues(values []any) any {
	var ints int64
	var floats float64
	isFloat := false
	for _, v := range values {
		switch t := normalize(v).(type) {
		case int64:
			ints += t
		case float64:
			floats += t
			isFloat = true
		}
	}
	if isFloat {
		return floats + float64(ints)
	}
	return ints
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int64, float64:
		return 1
	case string:
		return 2
	case Document:
		return 3
	case []any:
		return 4
	case primitive.ObjectID:
		return 5
	case bool:
		return 6
	case primitive.DateTime:
		return 7
	default:
		return 8
	}
}

// compareValues orders values the way the document store does: by type rank
// first, then by value.
func compareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case nil:
		return 0
	case int64, float64:
		return compareFloat(toFloat(x), toFloat(b))
	case string:
		return strings.Compare(x, b.(string))
	case primitive.ObjectID:
		y := b.(primitive.ObjectID)
		return bytes.Compare(x[:], y[:])
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case primitive.DateTime:
		y := b.(primitive.DateTime)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	default:
		if reflect.DeepEqual(a, b) {
			return 0
		}
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return math.NaN()
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
