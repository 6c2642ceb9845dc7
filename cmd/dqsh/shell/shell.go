// Package shell executes parsed dqsh commands: it lowers conditions into the
// typed expression builder, compiles them, and runs the compiled documents
// against the embedded store.
package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kartikbazzad/docquery/cmd/dqsh/parser"
	"github.com/kartikbazzad/docquery/internal/store"
	"github.com/kartikbazzad/docquery/pkg/driver"
	"github.com/kartikbazzad/docquery/pkg/query"
)

type Shell struct {
	store      *store.Store
	collection *store.Collection
	out        io.Writer
}

func New(st *store.Store, out io.Writer) *Shell {
	return &Shell{store: st, out: out}
}

// Execute runs one command and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, cmd *parser.Command) bool {
	switch cmd.Kind {
	case parser.KindExit:
		return true
	case parser.KindHelp:
		s.printHelp()
	case parser.KindStats:
		fmt.Fprint(s.out, s.store.Metrics().String())
	case parser.KindUse:
		c, err := s.store.Collection(cmd.Collection)
		if err != nil {
			s.errorf("use: %v", err)
			return false
		}
		s.collection = c
		fmt.Fprintf(s.out, "using collection %q\n", cmd.Collection)
	case parser.KindInsert:
		s.runInsert(ctx, cmd)
	case parser.KindFind, parser.KindFindOne:
		s.runFind(ctx, cmd)
	case parser.KindUpdate:
		s.runUpdate(ctx, cmd)
	}
	return false
}

func (s *Shell) runInsert(ctx context.Context, cmd *parser.Command) {
	if s.collection == nil {
		s.errorf("no collection selected (use <collection>)")
		return
	}
	id, err := s.collection.Insert(ctx, driver.Document(cmd.Doc))
	if err != nil {
		s.errorf("insert: %v", err)
		return
	}
	fmt.Fprintf(s.out, "inserted %s\n", id)
}

func (s *Shell) runFind(ctx context.Context, cmd *parser.Command) {
	if s.collection == nil {
		s.errorf("no collection selected (use <collection>)")
		return
	}

	filter, err := compileConditions(cmd.Conds, cmd.Connective)
	if err != nil {
		s.errorf("find: %v", err)
		return
	}
	s.printDoc("filter", map[string]any(filter))

	if cmd.Kind == parser.KindFindOne {
		doc, err := s.collection.FindOne(ctx, filter, driver.Options{})
		if err != nil {
			s.errorf("findone: %v", err)
			return
		}
		s.printDoc("", map[string]any(doc))
		return
	}

	docs, err := s.collection.Find(ctx, filter, driver.Options{})
	if err != nil {
		s.errorf("find: %v", err)
		return
	}
	for _, doc := range docs {
		s.printDoc("", map[string]any(doc))
	}
	fmt.Fprintf(s.out, "%d document(s)\n", len(docs))
}

func (s *Shell) runUpdate(ctx context.Context, cmd *parser.Command) {
	if s.collection == nil {
		s.errorf("no collection selected (use <collection>)")
		return
	}

	filter, err := compileConditions(cmd.Conds, cmd.Connective)
	if err != nil {
		s.errorf("update: %v", err)
		return
	}

	ops := make([]query.UpdateOp, 0, len(cmd.Sets)+len(cmd.Incs))
	for _, a := range cmd.Sets {
		ops = append(ops, query.Set(query.Col[any](a.Field), a.Value))
	}
	for _, a := range cmd.Incs {
		ops = append(ops, query.Inc(query.Col[float64](a.Field), a.Value.(float64)))
	}

	update, err := query.CompileUpdate(ops)
	if err != nil {
		s.errorf("update: %v", err)
		return
	}
	s.printDoc("filter", map[string]any(filter))
	s.printDoc("update", map[string]any(update))

	n, err := s.collection.Update(ctx, filter, update)
	if err != nil {
		s.errorf("update: %v", err)
		return
	}
	fmt.Fprintf(s.out, "%d document(s) modified\n", n)
}

// compileConditions lowers parsed conditions through the typed builder into
// a filter document. Single conditions skip the compound wrapper.
func compileConditions(conds []parser.Condition, connective string) (query.Filter, error) {
	exprs := make([]query.Expr, 0, len(conds))
	for _, c := range conds {
		e, err := condExpr(c)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}

	var e query.Expr
	switch {
	case len(exprs) == 1:
		e = exprs[0]
	case connective == "or":
		e = query.Or(exprs...)
	default:
		e = query.And(exprs...)
	}

	return query.CompileMatch(e)
}

func condExpr(c parser.Condition) (query.Expr, error) {
	switch c.Op {
	case "=":
		return query.Eq(query.Col[any](c.Field), c.Value), nil
	case "in":
		return query.In(query.Col[any](c.Field), c.Values...), nil
	case ">", ">=", "<", "<=":
		f, ok := c.Value.(float64)
		if !ok {
			return nil, fmt.Errorf("operator %q needs a numeric value, got %v", c.Op, c.Value)
		}
		col := query.Col[float64](c.Field)
		switch c.Op {
		case ">":
			return query.Gt(col, f), nil
		case ">=":
			return query.Gte(col, f), nil
		case "<":
			return query.Lt(col, f), nil
		default:
			return query.Lte(col, f), nil
		}
	default:
		return nil, fmt.Errorf("unknown operator %q", c.Op)
	}
}

func (s *Shell) printDoc(label string, doc map[string]any) {
	data, err := json.Marshal(doc)
	if err != nil {
		s.errorf("encode: %v", err)
		return
	}
	if label != "" {
		fmt.Fprintf(s.out, "%s: %s\n", label, data)
		return
	}
	fmt.Fprintf(s.out, "%s\n", data)
}

func (s *Shell) errorf(format string, args ...any) {
	fmt.Fprintf(s.out, "ERROR: "+format+"\n", args...)
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "dqsh commands:")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  .help                         Show this help message")
	fmt.Fprintln(s.out, "  .stats                        Show store metrics")
	fmt.Fprintln(s.out, "  .exit                         Exit the shell")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  use <collection>              Select a collection")
	fmt.Fprintln(s.out, "  insert <json>                 Insert a document")
	fmt.Fprintln(s.out, "  find <cond> [and|or <cond>]   Query documents")
	fmt.Fprintln(s.out, "  findone <cond> ...            Query one document")
	fmt.Fprintln(s.out, "  update <cond> ... set f v     Modify matching documents")
	fmt.Fprintln(s.out, "                 ... inc f v")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  <cond> is: field op value     op: = > >= < <= in")
	fmt.Fprintln(s.out, "  in takes a comma list:        find status in active,trial")
}
