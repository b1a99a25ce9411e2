package steps

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Knetic/govaluate"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/schema"
)

// SetColumnFormulaParams sets a column to the value of a formula over the
// other columns of its dataset, creating the column if needed.
type SetColumnFormulaParams struct {
	DatasetIndex int    `mapstructure:"datasetIndex"`
	ColumnHeader string `mapstructure:"columnHeader"`
	Formula      string `mapstructure:"formula"`
}

type setColumnFormula struct{}

func (setColumnFormula) Kind() domain.StepKind { return KindSetColumnFormula }
func (setColumnFormula) Version() int          { return 1 }

func (setColumnFormula) Schema() schema.Schema {
	return schema.Schema{
		"datasetIndex": schema.Int(),
		"columnHeader": schema.Custom("header", nonEmptyString),
		"formula":      schema.Custom("formula", nonEmptyString),
	}
}

func nonEmptyString(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func (f setColumnFormula) Saturate(prev *domain.State, raw map[string]any) (Params, error) {
	var p SetColumnFormulaParams
	if err := decodeParams(KindSetColumnFormula, f.Schema(), raw, &p); err != nil {
		return nil, err
	}
	if err := checkDataset(KindSetColumnFormula, "datasetIndex", prev, p.DatasetIndex); err != nil {
		return nil, err
	}
	p.Formula = strings.TrimPrefix(strings.TrimSpace(p.Formula), "=")

	expr, err := govaluate.NewEvaluableExpression(p.Formula)
	if err != nil {
		return nil, &domain.ParameterError{Kind: KindSetColumnFormula, Key: "formula", Reason: err.Error(), Err: err}
	}
	if _, err := toPandas(expr.Tokens(), func(string) string { return "" }); err != nil {
		return nil, &domain.ParameterError{Kind: KindSetColumnFormula, Key: "formula", Reason: err.Error(), Err: err}
	}
	ds := prev.Datasets[p.DatasetIndex]
	for _, v := range formulaVars(expr) {
		if _, ok := ds.Column(domain.ColumnHeader(v)); !ok {
			return nil, &domain.ParameterError{
				Kind: KindSetColumnFormula, Key: "formula",
				Reason: fmt.Sprintf("unknown column %q in %s", v, prev.Names[p.DatasetIndex]),
			}
		}
	}
	return p, nil
}

func (f setColumnFormula) Execute(prev *domain.State, params Params) (*domain.State, ExecutionData, error) {
	return f.Recompute(prev, params)
}

// Recompute evaluates the formula against state and writes the column.
func (setColumnFormula) Recompute(state *domain.State, params Params) (*domain.State, ExecutionData, error) {
	p := params.(SetColumnFormulaParams)
	start := time.Now()
	fail := func(reason, ref string, err error) (*domain.State, ExecutionData, error) {
		return nil, ExecutionData{}, &domain.StepExecutionError{Kind: KindSetColumnFormula, Reason: reason, Reference: ref, Err: err}
	}

	ds, err := state.Dataset(p.DatasetIndex)
	if err != nil {
		return fail("unknown dataset", datasetRef(p.DatasetIndex), err)
	}
	expr, err := govaluate.NewEvaluableExpression(p.Formula)
	if err != nil {
		return fail("invalid formula", p.Formula, err)
	}

	vars := formulaVars(expr)
	inputs := make([]domain.Column, 0, len(vars)+1)
	for _, v := range vars {
		col, ok := ds.Column(domain.ColumnHeader(v))
		if !ok {
			return fail("unknown column", v, nil)
		}
		inputs = append(inputs, col)
	}
	if len(inputs) == 0 {
		// Literal formulas broadcast over the dataset rows.
		inputs = append(inputs, rowLabels(ds))
	}

	meta := coerce.NaNIndexes(inputs...)
	results := make([]any, len(meta.Present))
	vals := make(map[string]any, len(vars))
	for n, row := range meta.Present {
		for i, v := range vars {
			vals[v] = formulaValue(inputs[i].Value(row))
		}
		out, err := expr.Evaluate(vals)
		if err != nil {
			return fail("formula evaluation failed", p.Formula, err)
		}
		results[n] = out
	}

	header := domain.ColumnHeader(p.ColumnHeader)
	col := domain.Column{
		Header: header,
		Dtype:  resultDtype(results, inputs[:len(vars)]),
		Values: meta.Restore(results),
	}
	if col.Dtype == domain.DtypeInt {
		for i, v := range col.Values {
			if f, ok := v.(float64); ok {
				col.Values[i] = int64(f)
			}
		}
	}

	exec := ExecutionData{}
	if ds.ColumnIndex(header) < 0 {
		exec.Inserted = true
		exec.InsertedAt = len(ds.Columns)
	}
	post := state.WithReplacedDataset(p.DatasetIndex, ds.WithColumn(col))
	exec.ProcessingTime = time.Since(start)
	return post, exec, nil
}

func rowLabels(ds domain.Dataset) domain.Column {
	values := make([]any, len(ds.Index))
	for i, label := range ds.Index {
		values[i] = label
	}
	return domain.Column{Dtype: domain.DtypeInt, Values: values}
}

// formulaVars lists referenced headers in first-use order.
func formulaVars(expr *govaluate.EvaluableExpression) []string {
	var vars []string
	seen := make(map[string]bool)
	for _, tok := range expr.Tokens() {
		if tok.Kind != govaluate.VARIABLE {
			continue
		}
		name, _ := tok.Value.(string)
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	return vars
}

// formulaValue adapts a cell to what the evaluator understands.
func formulaValue(v any) any {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case time.Duration:
		return x.Seconds()
	case time.Time:
		return float64(x.UnixNano()) / 1e9
	default:
		return v
	}
}

// resultDtype infers the dtype of formula results. Whole numbers computed
// only from integer columns stay integers.
func resultDtype(results []any, inputs []domain.Column) domain.Dtype {
	if len(results) == 0 {
		return domain.DtypeFloat
	}
	var dtype domain.Dtype
	whole := true
	for _, r := range results {
		var d domain.Dtype
		switch x := r.(type) {
		case bool:
			d = domain.DtypeBool
		case float64:
			d = domain.DtypeFloat
			if x != math.Trunc(x) || math.IsInf(x, 0) {
				whole = false
			}
		default:
			d = domain.DtypeObject
		}
		if dtype == "" {
			dtype = d
		} else if dtype != d {
			return domain.DtypeObject
		}
	}
	if dtype != domain.DtypeFloat || !whole {
		return dtype
	}
	for _, in := range inputs {
		if !in.Dtype.IsInt() {
			return dtype
		}
	}
	return domain.DtypeInt
}

func (f setColumnFormula) Transpile(prev, post *domain.State, exec ExecutionData, params Params) []string {
	p := params.(SetColumnFormulaParams)
	name := prev.Names[p.DatasetIndex]
	var lines []string
	if exec.Inserted {
		lines = append(lines, fmt.Sprintf("%s.insert(%d, %s, 0)", name, exec.InsertedAt, pyString(p.ColumnHeader)))
	}
	return append(lines, f.TranspileRecompute(post, exec, params)...)
}

func (setColumnFormula) TranspileRecompute(post *domain.State, _ ExecutionData, params Params) []string {
	p := params.(SetColumnFormulaParams)
	name := post.Names[p.DatasetIndex]
	expr, err := govaluate.NewEvaluableExpression(p.Formula)
	if err != nil {
		return nil
	}
	code, err := toPandas(expr.Tokens(), func(v string) string {
		return columnExpr(name, domain.ColumnHeader(v))
	})
	if err != nil {
		return nil
	}
	return []string{columnExpr(name, domain.ColumnHeader(p.ColumnHeader)) + " = " + code}
}

func (setColumnFormula) Describe(params Params, names []string) string {
	p := params.(SetColumnFormulaParams)
	return fmt.Sprintf("Set %s in %s to =%s", p.ColumnHeader, dfName(names, p.DatasetIndex), p.Formula)
}

func (setColumnFormula) ModifiedDatasetIndexes(params Params) []int {
	return []int{params.(SetColumnFormulaParams).DatasetIndex}
}

func (setColumnFormula) DerivedColumn(params Params) (int, domain.ColumnHeader) {
	p := params.(SetColumnFormulaParams)
	return p.DatasetIndex, domain.ColumnHeader(p.ColumnHeader)
}

func (setColumnFormula) WrittenColumns(params Params) (int, []domain.ColumnHeader) {
	p := params.(SetColumnFormulaParams)
	return p.DatasetIndex, []domain.ColumnHeader{domain.ColumnHeader(p.ColumnHeader)}
}

func (setColumnFormula) ReadColumns(params Params) (int, []domain.ColumnHeader, error) {
	p := params.(SetColumnFormulaParams)
	expr, err := govaluate.NewEvaluableExpression(p.Formula)
	if err != nil {
		return p.DatasetIndex, nil, err
	}
	vars := formulaVars(expr)
	headers := make([]domain.ColumnHeader, len(vars))
	for i, v := range vars {
		headers[i] = domain.ColumnHeader(v)
	}
	return p.DatasetIndex, headers, nil
}
