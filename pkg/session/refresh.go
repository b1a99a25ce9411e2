package session

import (
	"slices"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/steps"
)

// phaseError tags a step failure with the phase it happened in.
type phaseError struct {
	phase string
	err   error
}

func (e *phaseError) Error() string { return e.phase + ": " + e.err.Error() }
func (e *phaseError) Unwrap() error { return e.err }

// execute runs one step on top of log and refreshes the derived steps it
// affects. log is only read.
func (m *Manager) execute(log []*steps.Step, kind domain.StepKind, raw map[string]any) (*steps.Step, error) {
	perf, err := m.registry.Lookup(kind)
	if err != nil {
		return nil, &phaseError{phase: "lookup", err: err}
	}
	prev := current(m.initial, log)

	params, err := perf.Saturate(prev, raw)
	if err != nil {
		return nil, &phaseError{phase: "saturate", err: err}
	}
	post, exec, err := perf.Execute(prev, params)
	if err != nil {
		return nil, &phaseError{phase: "execute", err: err}
	}

	step := steps.NewStep(len(log), perf, params, prev, post, exec)
	if err := m.refresh(log, step, perf); err != nil {
		return nil, &phaseError{phase: "refresh", err: err}
	}
	return step, nil
}

// refresh recomputes, in log order, every earlier derived step whose dataset
// the new step modified. A derived step is skipped when a later step
// (including the new one) writes its column, since its value is no longer
// the one the dataset holds.
//
// When the new step is itself derived it changes only the columns it writes,
// so an earlier derived step is refreshed only if it reads one of those or a
// column refreshed before it.
func (m *Manager) refresh(log []*steps.Step, step *steps.Step, perf steps.Performer) error {
	if step.Post == step.Prev {
		return nil
	}
	modified := modifiedIndexes(perf, step)
	if len(modified) == 0 {
		return nil
	}

	var changed []domain.ColumnHeader
	_, derived := perf.(steps.Deriver)
	writer, narrow := perf.(steps.ColumnWriter)
	narrow = narrow && derived
	if narrow {
		_, written := writer.WrittenColumns(step.Params)
		changed = slices.Clone(written)
	}

	state := step.Post
	for i, earlier := range log {
		ep, err := m.registry.Lookup(earlier.Kind)
		if err != nil {
			return err
		}
		deriver, ok := ep.(steps.Deriver)
		if !ok {
			continue
		}
		dataset, header := deriver.DerivedColumn(earlier.Params)
		if !slices.Contains(modified, dataset) {
			continue
		}
		if m.overwritten(log[i+1:], step, dataset, header) {
			continue
		}
		if narrow && !readsAny(ep, earlier.Params, changed) {
			continue
		}

		post, exec, err := deriver.Recompute(state, earlier.Params)
		if err != nil {
			return err
		}
		step.Refreshes = append(step.Refreshes, steps.Refresh{StepIndex: i, Post: post, Exec: exec})
		state = post
		changed = append(changed, header)
	}
	if len(step.Refreshes) > 0 {
		step.Result = state
	}
	return nil
}

// readsAny reports whether the step reads one of headers. Kinds that do not
// declare their inputs read everything.
func readsAny(perf steps.Performer, params steps.Params, headers []domain.ColumnHeader) bool {
	r, ok := perf.(steps.ColumnReader)
	if !ok {
		return true
	}
	_, in, err := r.ReadColumns(params)
	if err != nil {
		return true
	}
	return slices.ContainsFunc(in, func(h domain.ColumnHeader) bool {
		return slices.Contains(headers, h)
	})
}

// modifiedIndexes resolves the new dataset sentinel to the index the step
// appended.
func modifiedIndexes(perf steps.Performer, step *steps.Step) []int {
	indexes := perf.ModifiedDatasetIndexes(step.Params)
	out := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if i == steps.NewDatasetIndex {
			i = step.Post.Len() - 1
		}
		out = append(out, i)
	}
	return out
}

func (m *Manager) overwritten(later []*steps.Step, step *steps.Step, dataset int, header domain.ColumnHeader) bool {
	writes := func(s *steps.Step) bool {
		perf, err := m.registry.Lookup(s.Kind)
		if err != nil {
			return false
		}
		w, ok := perf.(steps.ColumnWriter)
		if !ok {
			return false
		}
		i, headers := w.WrittenColumns(s.Params)
		return i == dataset && slices.Contains(headers, header)
	}
	if writes(step) {
		return true
	}
	for _, s := range later {
		if writes(s) {
			return true
		}
	}
	return false
}
