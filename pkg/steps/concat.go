package steps

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/schema"
)

const (
	JoinInner = "inner"
	JoinOuter = "outer"
)

// ConcatParams stacks datasets on top of each other into a new dataset.
type ConcatParams struct {
	Join           string `mapstructure:"join"`
	ResetIndex     bool   `mapstructure:"resetIndex"`
	DatasetIndexes []int  `mapstructure:"datasetIndexes"`
}

type concat struct{}

func (concat) Kind() domain.StepKind { return KindConcat }
func (concat) Version() int          { return 1 }

func (concat) Schema() schema.Schema {
	return schema.Schema{
		"join":           schema.Enum(JoinInner, JoinOuter),
		"resetIndex":     schema.Optional(schema.Bool()),
		"datasetIndexes": schema.NonEmptySlice(schema.Int()),
	}
}

func (c concat) Saturate(prev *domain.State, raw map[string]any) (Params, error) {
	var p ConcatParams
	if err := decodeParams(KindConcat, c.Schema(), raw, &p); err != nil {
		return nil, err
	}
	for _, i := range p.DatasetIndexes {
		if err := checkDataset(KindConcat, "datasetIndexes", prev, i); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (concat) Execute(prev *domain.State, params Params) (*domain.State, ExecutionData, error) {
	p := params.(ConcatParams)
	start := time.Now()

	inputs := make([]domain.Dataset, len(p.DatasetIndexes))
	for n, i := range p.DatasetIndexes {
		ds, err := prev.Dataset(i)
		if err != nil {
			return nil, ExecutionData{}, &domain.StepExecutionError{
				Kind: KindConcat, Reason: "unknown dataset", Reference: datasetRef(i), Err: err,
			}
		}
		inputs[n] = ds
	}

	headers, err := concatHeaders(p.Join, inputs)
	if err != nil {
		return nil, ExecutionData{}, &domain.StepExecutionError{Kind: KindConcat, Reason: err.Error()}
	}

	cols := make([]domain.Column, len(headers))
	for n, h := range headers {
		cols[n] = concatColumn(h, inputs)
	}

	var index []int64
	total := 0
	for _, ds := range inputs {
		total += ds.Rows()
		index = append(index, ds.Index...)
	}
	if p.ResetIndex {
		index = domain.RangeIndex(total)
	}

	post := prev.WithDataset(domain.Dataset{Columns: cols, Index: index}, prev.NextName())
	return post, ExecutionData{ProcessingTime: time.Since(start)}, nil
}

// concatHeaders keeps first-appearance order. An inner join keeps the
// headers every input has.
func concatHeaders(join string, inputs []domain.Dataset) ([]domain.ColumnHeader, error) {
	var headers []domain.ColumnHeader
	seen := make(map[domain.ColumnHeader]int)
	for _, ds := range inputs {
		for _, h := range ds.Headers() {
			if _, ok := seen[h]; !ok {
				headers = append(headers, h)
			}
			seen[h]++
		}
	}
	switch join {
	case JoinOuter:
		return headers, nil
	case JoinInner:
		kept := headers[:0:0]
		for _, h := range headers {
			if seen[h] == len(inputs) {
				kept = append(kept, h)
			}
		}
		return kept, nil
	default:
		return nil, fmt.Errorf("unsupported join %q", join)
	}
}

// concatColumn stacks one header across inputs, filling rows of inputs that
// lack it with missing values, and picks a dtype all pieces fit in.
func concatColumn(header domain.ColumnHeader, inputs []domain.Dataset) domain.Column {
	var (
		values []any
		dtype  domain.Dtype
		mixed  bool
		filled bool
	)
	for _, ds := range inputs {
		col, ok := ds.Column(header)
		if !ok {
			values = append(values, make([]any, ds.Rows())...)
			if ds.Rows() > 0 {
				filled = true
			}
			continue
		}
		for i := 0; i < ds.Rows(); i++ {
			values = append(values, col.Value(i))
		}
		switch {
		case dtype == "":
			dtype = col.Dtype
		case dtype == col.Dtype:
		case isNumeric(dtype) && isNumeric(col.Dtype):
			dtype = domain.DtypeFloat
		default:
			mixed = true
		}
	}

	switch {
	case mixed:
		dtype = domain.DtypeObject
	case filled && dtype == domain.DtypeInt:
		dtype = domain.DtypeFloat
	case filled && dtype == domain.DtypeBool:
		dtype = domain.DtypeObject
	}
	if dtype == domain.DtypeFloat {
		for i, v := range values {
			if f, ok := coerce.AsFloat(v); ok {
				values[i] = f
			}
		}
	}
	return domain.Column{Header: header, Dtype: dtype, Values: values}
}

func isNumeric(d domain.Dtype) bool { return d.IsInt() || d.IsFloat() }

func (concat) Transpile(prev, post *domain.State, _ ExecutionData, params Params) []string {
	p := params.(ConcatParams)
	names := make([]string, len(p.DatasetIndexes))
	for n, i := range p.DatasetIndexes {
		names[n] = prev.Names[i]
	}
	return []string{fmt.Sprintf(
		"%s = pd.concat([%s], join=%s, ignore_index=%s)",
		post.Names[post.Len()-1], strings.Join(names, ", "), pyString(p.Join), pyBool(p.ResetIndex),
	)}
}

func (concat) Describe(params Params, names []string) string {
	p := params.(ConcatParams)
	parts := make([]string, len(p.DatasetIndexes))
	for n, i := range p.DatasetIndexes {
		parts[n] = dfName(names, i)
	}
	return fmt.Sprintf("Concatenated %s (%s join)", strings.Join(parts, ", "), p.Join)
}

func (concat) ModifiedDatasetIndexes(Params) []int {
	return []int{NewDatasetIndex}
}
