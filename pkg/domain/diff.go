package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is designed to be handed to a preview layer that only re-renders what
// changed after a step.
type StateDiff struct {
	// Added lists the indexes of datasets that did not exist before.
	Added []int `json:"added,omitempty"`

	// Removed lists the indexes of datasets that no longer exist.
	Removed []int `json:"removed,omitempty"`

	// Modified maps a dataset index to the headers whose values or dtype changed,
	// including new columns.
	Modified map[int][]ColumnHeader `json:"modified,omitempty"`

	// Renamed maps a dataset index to its new display name.
	Renamed map[int]string `json:"renamed,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, every dataset of newState is reported as added.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = &State{}
	}

	diff := &StateDiff{}
	for i := range newState.Datasets {
		if i >= len(oldState.Datasets) {
			diff.Added = append(diff.Added, i)
			continue
		}
		if oldState.Names[i] != newState.Names[i] {
			if diff.Renamed == nil {
				diff.Renamed = make(map[int]string)
			}
			diff.Renamed[i] = newState.Names[i]
		}
		if changed := diffColumns(oldState.Datasets[i], newState.Datasets[i]); len(changed) > 0 {
			if diff.Modified == nil {
				diff.Modified = make(map[int][]ColumnHeader)
			}
			diff.Modified[i] = changed
		}
	}
	for i := len(newState.Datasets); i < len(oldState.Datasets); i++ {
		diff.Removed = append(diff.Removed, i)
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffColumns(old, new Dataset) []ColumnHeader {
	var changed []ColumnHeader
	for _, col := range new.Columns {
		prev, ok := old.Column(col.Header)
		if !ok || prev.Dtype != col.Dtype || !reflect.DeepEqual(prev.Values, col.Values) {
			changed = append(changed, col.Header)
		}
	}
	return changed
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Modified) == 0 &&
		len(d.Renamed) == 0
}
