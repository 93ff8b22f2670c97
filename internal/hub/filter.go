package hub

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// Filter is a compiled CEL predicate over deliveries. Expressions see:
//
//	id         int        message id
//	channelId  int        channel id
//	seq        int        delivery sequence number
//	username   string
//	content    string
//	created_at timestamp
//
// Example: username != "bot" && content.contains("deploy").
type Filter struct {
	expr string
	prog cel.Program
}

var filterEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("channelId", cel.IntType),
		cel.Variable("seq", cel.IntType),
		cel.Variable("username", cel.StringType),
		cel.Variable("content", cel.StringType),
		cel.Variable("created_at", cel.TimestampType),
	)
})

// CompileFilter parses and type-checks expr. An empty expression returns a
// nil Filter, which matches everything.
func CompileFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := filterEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("filter: %w", iss.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter: expression must be bool, got %s", t)
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter against d. Evaluation errors count as no match.
func (f *Filter) Match(d Delivery) bool {
	if f == nil {
		return true
	}
	m := d.Message
	out, _, err := f.prog.Eval(map[string]any{
		"id":         m.ID,
		"channelId":  m.ChannelID,
		"seq":        int64(d.Seq),
		"username":   m.Username,
		"content":    m.Content,
		"created_at": m.CreatedAt,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
