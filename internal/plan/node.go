package plan

// Direction is a sort order direction for an Order node's key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// AggregateKind identifies which accumulator an Aggregate node column uses.
type AggregateKind int

const (
	AggCount AggregateKind = iota
	AggSum
	AggMin
	AggMax
	AggAverage
)

// AggregateExpr pairs an AggregateKind with the expression it accumulates.
type AggregateExpr struct {
	Kind AggregateKind
	Expr Expr
}

// OrderKey pairs a sort expression with its direction.
type OrderKey struct {
	Expr Expr
	Dir  Direction
}

// Node is a query plan node: it describes (but does not itself execute) how
// to produce a row iterator, possibly from child nodes. internal/exec holds
// the pull-iterator that actually walks a Node tree.
//
// Node is a closed variant set, matching
// original_source/src/sql/planner/node.rs's enum Node; Go represents it as
// an interface with a private marker method, rather than a tagged union, so
// exhaustiveness is caught by internal/exec's type switch instead of the
// compiler — callers outside this package cannot add new variants.
type Node interface {
	isNode()
	// Columns reports the number of columns this node emits.
	Columns() int
}

func (Scan) isNode()           {}
func (Filter) isNode()         {}
func (Projection) isNode()     {}
func (Limit) isNode()          {}
func (Offset) isNode()         {}
func (Order) isNode()          {}
func (Aggregate) isNode()      {}
func (NestedLoopJoin) isNode() {}
func (HashJoin) isNode()       {}
func (Remap) isNode()          {}
func (Values) isNode()         {}
func (Nothing) isNode()        {}

// Scan is a sequential table scan with an optional pushed-down predicate.
type Scan struct {
	Table  string
	Filter Expr // nil means no filter
	Arity  int  // the scanned table's column count
}

func (s Scan) Columns() int { return s.Arity }

// Filter discards source rows whose predicate is not true (Null counts as
// false).
type Filter struct {
	Source    Node
	Predicate Expr
}

func (f Filter) Columns() int { return f.Source.Columns() }

// Projection evaluates Expressions against each source row, discarding the
// original columns.
type Projection struct {
	Source      Node
	Expressions []Expr
}

func (p Projection) Columns() int { return len(p.Expressions) }

// Limit emits only the first N source rows.
type Limit struct {
	Source Node
	N      int
}

func (l Limit) Columns() int { return l.Source.Columns() }

// Offset discards the first K source rows, emitting the rest.
type Offset struct {
	Source Node
	K      int
}

func (o Offset) Columns() int { return o.Source.Columns() }

// Order buffers the entire source and sorts it by Key, stably.
type Order struct {
	Source Node
	Key    []OrderKey
}

func (o Order) Columns() int { return o.Source.Columns() }

// Aggregate computes group_by buckets and, per bucket, one value per
// Aggregates entry. Output columns are group_by values followed by
// aggregate values, in that order.
type Aggregate struct {
	Source     Node
	GroupBy    []Expr
	Aggregates []AggregateExpr
}

func (a Aggregate) Columns() int { return len(a.GroupBy) + len(a.Aggregates) }

// NestedLoopJoin joins Left and Right by iterating a fresh clone of Right
// per Left row, optionally filtered by Predicate; Outer pads an unmatched
// Left row with Nulls instead of dropping it.
type NestedLoopJoin struct {
	Left, Right Node
	Predicate   Expr // nil means cross join
	Outer       bool
}

func (j NestedLoopJoin) Columns() int { return j.Left.Columns() + j.Right.Columns() }

// HashJoin joins Left and Right by building a multimap of Right keyed by
// RightColumn and probing it with each Left row's LeftColumn value.
type HashJoin struct {
	Left, Right             Node
	LeftColumn, RightColumn int
	Outer                   bool
}

func (j HashJoin) Columns() int { return j.Left.Columns() + j.Right.Columns() }

// Remap permutes or drops source columns. Targets[i] is the output column
// index that source column i maps to, or -1 to drop it. Output columns
// with no source mapped to them are Null. Columns() is therefore the
// highest mapped target plus one, not len(Targets).
type Remap struct {
	Source  Node
	Targets []int
}

func (r Remap) Columns() int {
	max := -1
	for _, t := range r.Targets {
		if t > max {
			max = t
		}
	}
	return max + 1
}

// Values emits a fixed set of constant rows, each a list of expressions
// evaluated with no current row (r=nil). Shorter rows are Null-padded to
// the width of the widest row, which is what Columns reports.
type Values struct {
	Rows [][]Expr
}

func (v Values) Columns() int {
	width := 0
	for _, r := range v.Rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}

// Nothing emits no rows at all, retaining only a column count for display
// purposes (e.g. a query the optimizer proved empty).
type Nothing struct {
	NumColumns int
}

func (n Nothing) Columns() int { return n.NumColumns }
