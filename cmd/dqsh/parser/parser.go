// Package parser turns dqsh input lines into structured commands. The
// predicate grammar is deliberately tiny: conditions are `field op value`
// triples joined by a single connective (`and` or `or`, not mixed), values
// are JSON scalars without embedded spaces, and `in` takes a comma-separated
// list.
package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindHelp Kind = iota
	KindExit
	KindStats
	KindUse
	KindInsert
	KindFind
	KindFindOne
	KindUpdate
)

// Condition is one `field op value` predicate. Values holds the list for the
// `in` operator; Value holds the scalar for everything else.
type Condition struct {
	Field  string
	Op     string // "=", ">", ">=", "<", "<=", "in"
	Value  any
	Values []any
}

// Assignment is one `set field value` or `inc field value` mutation.
type Assignment struct {
	Field string
	Value any
}

type Command struct {
	Kind       Kind
	Collection string         // use
	Doc        map[string]any // insert
	Conds      []Condition    // find/findone/update
	Connective string         // "and" or "or"
	Sets       []Assignment
	Incs       []Assignment
}

// Parse parses one input line.
func Parse(line string) (*Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty command")
	}

	switch {
	case line == ".help":
		return &Command{Kind: KindHelp}, nil
	case line == ".exit" || line == ".quit":
		return &Command{Kind: KindExit}, nil
	case line == ".stats":
		return &Command{Kind: KindStats}, nil
	}

	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "use":
		if rest == "" || len(strings.Fields(rest)) != 1 {
			return nil, fmt.Errorf("usage: use <collection>")
		}
		return &Command{Kind: KindUse, Collection: rest}, nil

	case "insert":
		var doc map[string]any
		if err := json.Unmarshal([]byte(rest), &doc); err != nil {
			return nil, fmt.Errorf("insert: invalid JSON document: %v", err)
		}
		return &Command{Kind: KindInsert, Doc: doc}, nil

	case "find", "findone":
		kind := KindFind
		if verb == "findone" {
			kind = KindFindOne
		}
		conds, connective, leftover, err := parseConditions(strings.Fields(rest))
		if err != nil {
			return nil, err
		}
		if len(leftover) != 0 {
			return nil, fmt.Errorf("%s: unexpected %q", verb, strings.Join(leftover, " "))
		}
		return &Command{Kind: kind, Conds: conds, Connective: connective}, nil

	case "update":
		conds, connective, leftover, err := parseConditions(strings.Fields(rest))
		if err != nil {
			return nil, err
		}
		sets, incs, err := parseAssignments(leftover)
		if err != nil {
			return nil, err
		}
		if len(sets) == 0 && len(incs) == 0 {
			return nil, fmt.Errorf("update: no set/inc clauses")
		}
		return &Command{Kind: KindUpdate, Conds: conds, Connective: connective, Sets: sets, Incs: incs}, nil

	default:
		return nil, fmt.Errorf("unknown command %q (try .help)", verb)
	}
}

// parseConditions consumes `field op value [and|or field op value]...` and
// returns whatever tokens follow (the set/inc clauses of an update).
func parseConditions(tokens []string) ([]Condition, string, []string, error) {
	var conds []Condition
	connective := "and"

	for len(tokens) > 0 {
		if tokens[0] == "set" || tokens[0] == "inc" {
			break
		}
		if len(tokens) < 3 {
			return nil, "", nil, fmt.Errorf("incomplete condition %q", strings.Join(tokens, " "))
		}

		field, op, raw := tokens[0], tokens[1], tokens[2]
		tokens = tokens[3:]

		cond := Condition{Field: field, Op: op}
		switch op {
		case "=", ">", ">=", "<", "<=":
			cond.Value = parseValue(raw)
		case "in":
			for _, part := range strings.Split(raw, ",") {
				cond.Values = append(cond.Values, parseValue(part))
			}
		default:
			return nil, "", nil, fmt.Errorf("unknown operator %q", op)
		}
		conds = append(conds, cond)

		if len(tokens) > 0 && (tokens[0] == "and" || tokens[0] == "or") {
			next := tokens[0]
			if len(conds) > 1 && next != connective {
				return nil, "", nil, fmt.Errorf("cannot mix and/or in one predicate")
			}
			connective = next
			tokens = tokens[1:]
		}
	}

	if len(conds) == 0 {
		return nil, "", nil, fmt.Errorf("expected at least one condition")
	}
	return conds, connective, tokens, nil
}

// parseAssignments consumes `set field value` / `inc field value` clauses.
func parseAssignments(tokens []string) (sets, incs []Assignment, err error) {
	for len(tokens) > 0 {
		if len(tokens) < 3 {
			return nil, nil, fmt.Errorf("incomplete clause %q", strings.Join(tokens, " "))
		}
		kw, field, raw := tokens[0], tokens[1], tokens[2]
		tokens = tokens[3:]

		a := Assignment{Field: field, Value: parseValue(raw)}
		switch kw {
		case "set":
			sets = append(sets, a)
		case "inc":
			if _, ok := a.Value.(float64); !ok {
				return nil, nil, fmt.Errorf("inc %s: value must be numeric", field)
			}
			incs = append(incs, a)
		default:
			return nil, nil, fmt.Errorf("expected set or inc, got %q", kw)
		}
	}
	return sets, incs, nil
}

// parseValue interprets a token as a JSON scalar: null, booleans, numbers,
// quoted strings. Anything else is a bare string.
func parseValue(raw string) any {
	switch raw {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return raw
}
