package steps

import (
	"fmt"
	"time"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/schema"
)

// ChangeColumnDtypeParams converts one column to another type in place.
type ChangeColumnDtypeParams struct {
	DatasetIndex int    `mapstructure:"datasetIndex"`
	ColumnID     string `mapstructure:"columnId"`
	TargetType   string `mapstructure:"targetType"`

	header domain.ColumnHeader
	target domain.Dtype
}

// Header is the header the column id resolved to.
func (p ChangeColumnDtypeParams) Header() domain.ColumnHeader { return p.header }

// Target is the dtype the column is converted to.
func (p ChangeColumnDtypeParams) Target() domain.Dtype { return p.target }

type changeColumnDtype struct{}

func (changeColumnDtype) Kind() domain.StepKind { return KindChangeColumnDtype }
func (changeColumnDtype) Version() int          { return 1 }

func (changeColumnDtype) Schema() schema.Schema {
	return schema.Schema{
		"datasetIndex": schema.Int(),
		"columnId":     schema.String(),
		"targetType":   schema.String(),
	}
}

func (c changeColumnDtype) Saturate(prev *domain.State, raw map[string]any) (Params, error) {
	var p ChangeColumnDtypeParams
	if err := decodeParams(KindChangeColumnDtype, c.Schema(), raw, &p); err != nil {
		return nil, err
	}
	if err := checkDataset(KindChangeColumnDtype, "datasetIndex", prev, p.DatasetIndex); err != nil {
		return nil, err
	}
	header, ok := prev.ColumnIDs[p.DatasetIndex].Header(domain.ColumnID(p.ColumnID))
	if !ok {
		return nil, &domain.ParameterError{
			Kind: KindChangeColumnDtype, Key: "columnId",
			Reason: fmt.Sprintf("no column %q in %s", p.ColumnID, prev.Names[p.DatasetIndex]),
		}
	}
	target, err := coerce.ParseTarget(p.TargetType)
	if err != nil {
		return nil, &domain.ParameterError{Kind: KindChangeColumnDtype, Key: "targetType", Reason: err.Error(), Err: err}
	}
	p.header = header
	p.target = target
	return p, nil
}

func (changeColumnDtype) Execute(prev *domain.State, params Params) (*domain.State, ExecutionData, error) {
	p := params.(ChangeColumnDtypeParams)
	start := time.Now()

	ds, err := prev.Dataset(p.DatasetIndex)
	if err != nil {
		return nil, ExecutionData{}, &domain.StepExecutionError{
			Kind: KindChangeColumnDtype, Reason: "unknown dataset", Reference: datasetRef(p.DatasetIndex), Err: err,
		}
	}
	col, ok := ds.Column(p.header)
	if !ok {
		return nil, ExecutionData{}, &domain.StepExecutionError{
			Kind: KindChangeColumnDtype, Reason: "unknown column", Reference: string(p.header),
		}
	}

	// The requested name, not the resolved dtype, so that a logical type
	// name the column already has is a no-op.
	res, err := coerce.Convert(col, domain.Dtype(p.TargetType), columnExpr(prev.Names[p.DatasetIndex], p.header))
	if err != nil {
		return nil, ExecutionData{}, &domain.StepExecutionError{
			Kind: KindChangeColumnDtype, Reason: "conversion failed", Reference: string(p.header), Err: err,
		}
	}

	exec := ExecutionData{
		Expression: res.Expression,
		Coercion: &domain.Coercion{
			From:   coerce.Classify(col),
			To:     coerce.ClassifyDtype(p.target),
			Failed: res.Failed,
		},
	}
	if res.Datetime != nil && !res.Datetime.Inferred {
		exec.DatetimeFormat = res.Datetime.Strftime
	}

	post := prev
	if res.Changed() {
		post = prev.WithReplacedDataset(p.DatasetIndex, ds.WithColumn(res.Column))
	}
	exec.ProcessingTime = time.Since(start)
	return post, exec, nil
}

func (changeColumnDtype) Transpile(prev, _ *domain.State, exec ExecutionData, params Params) []string {
	if exec.Expression == "" {
		return nil
	}
	p := params.(ChangeColumnDtypeParams)
	return []string{columnExpr(prev.Names[p.DatasetIndex], p.header) + " = " + exec.Expression}
}

func (changeColumnDtype) Describe(params Params, names []string) string {
	p := params.(ChangeColumnDtypeParams)
	header := p.header
	if header == "" {
		header = domain.ColumnHeader(p.ColumnID)
	}
	return fmt.Sprintf("Changed %s in %s to %s", header, dfName(names, p.DatasetIndex), p.TargetType)
}

func (changeColumnDtype) ModifiedDatasetIndexes(params Params) []int {
	return []int{params.(ChangeColumnDtypeParams).DatasetIndex}
}

func (changeColumnDtype) WrittenColumns(params Params) (int, []domain.ColumnHeader) {
	p := params.(ChangeColumnDtypeParams)
	return p.DatasetIndex, []domain.ColumnHeader{p.header}
}
