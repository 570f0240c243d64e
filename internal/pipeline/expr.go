package pipeline

import (
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vidtube/backend/internal/ids"
)

// Expr computes a value from the fields of a single document.
type Expr interface {
	refs() []string
	compile() any
	evaluate(doc Document) any
}

// Field references the value at a dotted path. Paths that cross a list
// resolve to the list of the nested values.
func Field(path string) Expr { return fieldExpr{path: path} }

type fieldExpr struct{ path string }

func (e fieldExpr) refs() []string { return []string{e.path} }
func (e fieldExpr) compile() any { return "$" + e.path }
func (e fieldExpr) evaluate(doc Document) any {
	v, _ := resolve(doc, e.path)
	return v
}

// Literal is a constant value.
func Literal(v any) Expr { return literalExpr{value: v} }

type literalExpr struct{ value any }

func (e literalExpr) refs() []string { return nil }
func (e literalExpr) compile() any { return bson.D{{Key: "$literal", Value: e.value}} }
func (e literalExpr) evaluate(Document) any { return normalize(e.value) }

// Count is the number of elements of the list at path. A missing list counts 0.
func Count(path string) Expr { return countExpr{path: path} }

type countExpr struct{ path string }

func (e countExpr) refs() []string { return []string{e.path} }
func (e countExpr) compile() any {
	return bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + e.path, bson.A{}}}}}}
}
func (e countExpr) evaluate(doc Document) any {
	v, _ := resolve(doc, e.path)
	if list, ok := v.([]any); ok {
		return int64(len(list))
	}
	return int64(0)
}

// First is the first element of the list at path, or null when it is empty.
func First(path string) Expr { return elemExpr{path: path, op: "$first"} }

// Last is the last element of the list at path, or null when it is empty.
func Last(path string) Expr { return elemExpr{path: path, op: "$last"} }

type elemExpr struct {
	path string
	op   string
}

func (e elemExpr) refs() []string { return []string{e.path} }
func (e elemExpr) compile() any { return bson.D{{Key: e.op, Value: "$" + e.path}} }
func (e elemExpr) evaluate(doc Document) any {
	v, _ := resolve(doc, e.path)
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	if e.op == "$last" {
		return list[len(list)-1]
	}
	return list[0]
}

// Sum adds the numeric values at path. A path resolving to a list sums its
// elements; non-numeric values are ignored.
func Sum(path string) Expr { return sumExpr{path: path} }

type sumExpr struct{ path string }

func (e sumExpr) refs() []string { return []string{e.path} }
func (e sumExpr) compile() any { return bson.D{{Key: "$sum", Value: "$" + e.path}} }
func (e sumExpr) evaluate(doc Document) any {
	v, _ := resolve(doc, e.path)
	if list, ok := v.([]any); ok {
		return sumValues(list)
	}
	return sumValues([]any{v})
}

// ContainsID reports whether the id at path (usually list.idField) equals id.
func ContainsID(path string, id ids.ID) Expr { return containsIDExpr{path: path, id: id} }

type containsIDExpr struct {
	path string
	id   ids.ID
}

func (e containsIDExpr) refs() []string { return []string{e.path} }
func (e containsIDExpr) compile() any {
	return bson.D{{Key: "$in", Value: bson.A{e.id, bson.D{{Key: "$ifNull", Value: bson.A{"$" + e.path, bson.A{}}}}}}}
}
func (e containsIDExpr) evaluate(doc Document) any {
	v, _ := resolve(doc, e.path)
	for _, candidate := range flatten(v) {
		if id, ok := ids.From(candidate); ok && ids.Equal(id, e.id) {
			return true
		}
	}
	return false
}

// Cond selects then when cond is truthy and otherwise.
func Cond(cond, then, otherwise Expr) Expr {
	return condExpr{cond: cond, then: then, otherwise: otherwise}
}

type condExpr struct{ cond, then, otherwise Expr }

func (e condExpr) refs() []string {
	var out []string
	for _, x := range []Expr{e.cond, e.then, e.otherwise} {
		out = append(out, x.refs()...)
	}
	return out
}
func (e condExpr) compile() any {
	return bson.D{{Key: "$cond", Value: bson.D{
		{Key: "if", Value: e.cond.compile()},
		{Key: "then", Value: e.then.compile()},
		{Key: "else", Value: e.otherwise.compile()},
	}}}
}
func (e condExpr) evaluate(doc Document) any {
	if truthy(e.cond.evaluate(doc)) {
		return e.then.evaluate(doc)
	}
	return e.otherwise.evaluate(doc)
}

// Equals compares two expressions.
func Equals(a, b Expr) Expr { return eqExpr{a: a, b: b} }

type eqExpr struct{ a, b Expr }

func (e eqExpr) refs() []string { return append(e.a.refs(), e.b.refs()...) }
func (e eqExpr) compile() any { return bson.D{{Key: "$eq", Value: bson.A{e.a.compile(), e.b.compile()}}} }
func (e eqExpr) evaluate(doc Document) any {
	return compareValues(e.a.evaluate(doc), e.b.evaluate(doc)) == 0
}

// Not negates a boolean expression.
func Not(x Expr) Expr { return notExpr{x: x} }

type notExpr struct{ x Expr }

func (e notExpr) refs() []string { return e.x.refs() }
func (e notExpr) compile() any { return bson.D{{Key: "$not", Value: bson.A{e.x.compile()}}} }
func (e notExpr) evaluate(doc Document) any {
	return !truthy(e.x.evaluate(doc))
}

// Predicate selects documents in a Filter stage.
type Predicate interface {
	refs() []string
	compile() bson.D
	matches(doc Document) bool
	isText() bool
}

// Eq matches documents whose value at field equals v. When field holds a
// list, any element may match.
func Eq(field string, v any) Predicate { return eqPredicate{field: field, value: v} }

// IDEq matches documents whose id at field equals id.
func IDEq(field string, id ids.ID) Predicate { return eqPredicate{field: field, value: id} }

type eqPredicate struct {
	field string
	value any
}

func (p eqPredicate) refs() []string { return []string{p.field} }
func (p eqPredicate) compile() bson.D { return bson.D{{Key: p.field, Value: p.value}} }
func (p eqPredicate) isText() bool { return false }
func (p eqPredicate) matches(doc Document) bool {
	want := normalize(p.value)
	v, ok := resolve(doc, p.field)
	if !ok {
		return want == nil
	}
	for _, candidate := range flattenWithSelf(v) {
		if compareValues(candidate, want) == 0 {
			return true
		}
	}
	return false
}

// IDIn matches documents whose id at field is one of set.
func IDIn(field string, set ...ids.ID) Predicate { return idInPredicate{field: field, set: set} }

type idInPredicate struct {
	field string
	set   []ids.ID
}

func (p idInPredicate) refs() []string { return []string{p.field} }
func (p idInPredicate) compile() bson.D {
	list := bson.A{}
	for _, id := range p.set {
		list = append(list, id)
	}
	return bson.D{{Key: p.field, Value: bson.D{{Key: "$in", Value: list}}}}
}
func (p idInPredicate) isText() bool { return false }
func (p idInPredicate) matches(doc Document) bool {
	v, _ := resolve(doc, p.field)
	for _, candidate := range flattenWithSelf(v) {
		id, ok := ids.From(candidate)
		if !ok {
			continue
		}
		for _, want := range p.set {
			if ids.Equal(id, want) {
				return true
			}
		}
	}
	return false
}

// And matches documents satisfying every predicate.
func And(preds ...Predicate) Predicate { return andPredicate{preds: preds} }

type andPredicate struct{ preds []Predicate }

func (p andPredicate) refs() []string {
	var out []string
	for _, x := range p.preds {
		out = append(out, x.refs()...)
	}
	return out
}
func (p andPredicate) compile() bson.D {
	parts := bson.A{}
	for _, x := range p.preds {
		parts = append(parts, x.compile())
	}
	return bson.D{{Key: "$and", Value: parts}}
}
func (p andPredicate) isText() bool {
	for _, x := range p.preds {
		if x.isText() {
			return true
		}
	}
	return false
}
func (p andPredicate) matches(doc Document) bool {
	for _, x := range p.preds {
		if !x.matches(doc) {
			return false
		}
	}
	return true
}

// TextSearch matches documents containing any word of query in one of the
// text-indexed fields. It must be the first stage of a pipeline.
func TextSearch(query string, fields ...string) Predicate {
	return textPredicate{query: query, fields: fields}
}

type textPredicate struct {
	query  string
	fields []string
}

func (p textPredicate) refs() []string { return p.fields }
func (p textPredicate) compile() bson.D {
	return bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: p.query}}}}
}
func (p textPredicate) isText() bool { return true }
func (p textPredicate) matches(doc Document) bool {
	terms := words(p.query)
	if len(terms) == 0 {
		return false
	}
	for _, f := range p.fields {
		v, _ := resolve(doc, f)
		s, ok := v.(string)
		if !ok {
			continue
		}
		for w := range words(s) {
			if _, hit := terms[w]; hit {
				return true
			}
		}
	}
	return false
}

func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w] = struct{}{}
	}
	return out
}

// FilterDocument compiles a predicate into a MongoDB query document.
func FilterDocument(p Predicate) bson.D { return p.compile() }

// Matches reports whether doc satisfies p.
func Matches(p Predicate, doc Document) bool { return p.matches(doc) }

// SetPath writes value at a dotted path of doc, copying nested documents
// instead of mutating them.
func SetPath(doc Document, path string, value any) { setPath(doc, path, value) }

// Lookup reads the value at a dotted path of doc.
func Lookup(doc Document, path string) (any, bool) { return resolve(doc, path) }

// Compare orders two document values.
func Compare(a, b any) int { return compareValues(a, b) }

// Clone returns a shallow copy of doc.
func (d Document) Clone() Document { return d.clone() }
