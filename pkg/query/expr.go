package query

// Numeric constrains the ordering comparisons to number-valued columns.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Expr is a predicate over document fields. The implementation set is closed:
// the six comparisons (eq, gt, gte, lt, lte, in) and the boolean compounds
// And and Or. Nodes are immutable trees; compound children are independent
// sub-trees.
type Expr interface {
	exprNode()
}

type eqExpr struct {
	path string
	val  any
}

// cmpExpr covers the four ordering comparisons; op is the operator key the
// match compiler emits ("$gt", "$gte", "$lt", "$lte").
type cmpExpr struct {
	op   string
	path string
	val  any
}

type inExpr struct {
	path string
	vals []any
}

type andExpr struct {
	exprs []Expr
}

type orExpr struct {
	exprs []Expr
}

func (eqExpr) exprNode()  {}
func (cmpExpr) exprNode() {}
func (inExpr) exprNode()  {}
func (andExpr) exprNode() {}
func (orExpr) exprNode()  {}

// Eq matches documents whose field equals v. Any value type is allowed,
// including a nil pointer (compiled as a null literal).
func Eq[T any](col Column[T], v T) Expr {
	return eqExpr{path: col.path, val: v}
}

// Gt matches documents whose field is strictly greater than v.
func Gt[T Numeric](col Column[T], v T) Expr {
	return cmpExpr{op: "$gt", path: col.path, val: v}
}

// Gte matches documents whose field is greater than or equal to v.
func Gte[T Numeric](col Column[T], v T) Expr {
	return cmpExpr{op: "$gte", path: col.path, val: v}
}

// Lt matches documents whose field is strictly less than v.
func Lt[T Numeric](col Column[T], v T) Expr {
	return cmpExpr{op: "$lt", path: col.path, val: v}
}

// Lte matches documents whose field is less than or equal to v.
func Lte[T Numeric](col Column[T], v T) Expr {
	return cmpExpr{op: "$lte", path: col.path, val: v}
}

// In matches documents whose field equals one of vals. Order is preserved
// exactly; duplicates are kept.
func In[T any](col Column[T], vals ...T) Expr {
	vs := make([]any, len(vals))
	for i, v := range vals {
		vs[i] = v
	}
	return inExpr{path: col.path, vals: vs}
}

// And matches documents satisfying every child expression. A zero-child And
// compiles to {"$and": []}; the embedded store evaluates that as matching
// every document.
func And(exprs ...Expr) Expr {
	return andExpr{exprs: exprs}
}

// Or matches documents satisfying at least one child expression. A
// zero-child Or compiles to {"$or": []}; the embedded store evaluates that
// as matching none.
func Or(exprs ...Expr) Expr {
	return orExpr{exprs: exprs}
}
