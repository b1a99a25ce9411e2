package steps

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/aretw0/stepsheet/pkg/coerce"
)

// pandasOperators maps formula operators onto their vectorised pandas form.
var pandasOperators = map[string]string{
	"&&": "&",
	"||": "|",
	"!":  "~",
}

// group is one parenthesised level of a formula being rendered.
type group struct {
	prefix   string
	segments [][]string
	ops      []string
	current  []string
}

func (g *group) push(piece string) {
	g.current = append(g.current, piece)
}

// render joins the group. Operands of logical operators are parenthesised
// since & and | bind tighter than comparisons in pandas.
func (g *group) render() string {
	if len(g.ops) == 0 {
		return strings.Join(g.current, " ")
	}
	var b strings.Builder
	for i, pieces := range append(g.segments, g.current) {
		if i > 0 {
			b.WriteString(" " + g.ops[i-1] + " ")
		}
		seg := strings.Join(pieces, " ")
		if len(pieces) > 1 {
			seg = "(" + seg + ")"
		}
		b.WriteString(seg)
	}
	return b.String()
}

// toPandas renders a tokenised formula as a pandas expression. Variables are
// rendered through varExpr.
func toPandas(tokens []govaluate.ExpressionToken, varExpr func(string) string) (string, error) {
	stack := []*group{{}}
	prefix := ""
	emit := func(piece string) {
		top := stack[len(stack)-1]
		top.push(prefix + piece)
		prefix = ""
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case govaluate.VARIABLE:
			emit(varExpr(fmt.Sprint(tok.Value)))
		case govaluate.NUMERIC:
			f, _ := tok.Value.(float64)
			emit(formulaNumber(f))
		case govaluate.BOOLEAN:
			b, _ := tok.Value.(bool)
			emit(pyBool(b))
		case govaluate.STRING:
			emit(pyString(fmt.Sprint(tok.Value)))
		case govaluate.PREFIX:
			op := fmt.Sprint(tok.Value)
			if mapped, ok := pandasOperators[op]; ok {
				op = mapped
			}
			prefix += op
		case govaluate.MODIFIER, govaluate.COMPARATOR:
			op := fmt.Sprint(tok.Value)
			if op == "=~" || op == "!~" || op == "in" {
				return "", fmt.Errorf("unsupported operator %q", op)
			}
			emit(op)
		case govaluate.LOGICALOP:
			top := stack[len(stack)-1]
			top.segments = append(top.segments, top.current)
			top.ops = append(top.ops, pandasOperators[fmt.Sprint(tok.Value)])
			top.current = nil
		case govaluate.CLAUSE:
			stack = append(stack, &group{prefix: prefix})
			prefix = ""
		case govaluate.CLAUSE_CLOSE:
			if len(stack) == 1 {
				return "", fmt.Errorf("unbalanced parenthesis")
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].push(top.prefix + "(" + top.render() + ")")
		default:
			return "", fmt.Errorf("unsupported formula element %v", tok.Value)
		}
	}
	if len(stack) != 1 {
		return "", fmt.Errorf("unbalanced parenthesis")
	}
	return stack[0].render(), nil
}

func formulaNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return coerce.FormatFloat(f)
}
