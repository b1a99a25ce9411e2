package steps

import (
	"fmt"

	"github.com/aretw0/stepsheet/pkg/domain"
)

const (
	KindConcat            domain.StepKind = "concat"
	KindChangeColumnDtype domain.StepKind = "change_column_dtype"
	KindSetColumnFormula  domain.StepKind = "set_column_formula"
)

// NewDatasetIndex is reported by ModifiedDatasetIndexes when a step appends
// a dataset instead of changing an existing one.
const NewDatasetIndex = -1

// Kinds lists every step kind in a stable order.
func Kinds() []domain.StepKind {
	return []domain.StepKind{KindConcat, KindChangeColumnDtype, KindSetColumnFormula}
}

// New returns the performer for kind.
func New(kind domain.StepKind) (Performer, error) {
	switch kind {
	case KindConcat:
		return concat{}, nil
	case KindChangeColumnDtype:
		return changeColumnDtype{}, nil
	case KindSetColumnFormula:
		return setColumnFormula{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStepKind, kind)
	}
}

// Params is the resolved, typed parameter set of one step. The set of
// implementations mirrors the set of kinds.
type Params interface {
	Kind() domain.StepKind
	sealed()
}

func (ConcatParams) Kind() domain.StepKind            { return KindConcat }
func (ChangeColumnDtypeParams) Kind() domain.StepKind { return KindChangeColumnDtype }
func (SetColumnFormulaParams) Kind() domain.StepKind  { return KindSetColumnFormula }

func (ConcatParams) sealed()            {}
func (ChangeColumnDtypeParams) sealed() {}
func (SetColumnFormulaParams) sealed()  {}
