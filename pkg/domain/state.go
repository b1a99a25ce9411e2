package domain

import (
	"fmt"
	"strconv"
)

// ColumnIDMap is the bijection between column ids and headers of one dataset.
type ColumnIDMap struct {
	headers map[ColumnID]ColumnHeader
	ids     map[ColumnHeader]ColumnID
}

// NewColumnIDMap assigns ids to the headers of a freshly introduced dataset.
// A header keeps its own text as id, so ids survive later renames.
func NewColumnIDMap(headers []ColumnHeader) ColumnIDMap {
	m := ColumnIDMap{
		headers: make(map[ColumnID]ColumnHeader, len(headers)),
		ids:     make(map[ColumnHeader]ColumnID, len(headers)),
	}
	for _, h := range headers {
		m = m.withHeader(h)
	}
	return m
}

// Header resolves a column id.
func (m ColumnIDMap) Header(id ColumnID) (ColumnHeader, bool) {
	h, ok := m.headers[id]
	return h, ok
}

// ID resolves a column header.
func (m ColumnIDMap) ID(header ColumnHeader) (ColumnID, bool) {
	id, ok := m.ids[header]
	return id, ok
}

// Len returns the number of mapped columns.
func (m ColumnIDMap) Len() int { return len(m.ids) }

// WithHeader returns a copy of the map that also knows header. Existing
// headers keep their id.
func (m ColumnIDMap) WithHeader(header ColumnHeader) ColumnIDMap {
	if _, ok := m.ids[header]; ok {
		return m
	}
	next := ColumnIDMap{
		headers: make(map[ColumnID]ColumnHeader, len(m.headers)+1),
		ids:     make(map[ColumnHeader]ColumnID, len(m.ids)+1),
	}
	for id, h := range m.headers {
		next.headers[id] = h
		next.ids[h] = id
	}
	return next.withHeader(header)
}

func (m ColumnIDMap) withHeader(header ColumnHeader) ColumnIDMap {
	id := ColumnID(header)
	for n := 1; ; n++ {
		if _, taken := m.headers[id]; !taken {
			break
		}
		id = ColumnID(string(header) + "_" + strconv.Itoa(n))
	}
	m.headers[id] = header
	m.ids[header] = id
	return m
}

// State is the snapshot produced by executing one step.
//
// States are immutable by convention: steps receive the previous State and
// return a new one built with Clone and the With* helpers.
type State struct {
	Datasets  []Dataset
	Names     []string
	ColumnIDs []ColumnIDMap
}

// NewState creates the initial State for the given datasets. Missing names
// default to df1, df2, ...
func NewState(datasets []Dataset, names []string) *State {
	s := &State{}
	for i, ds := range datasets {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		if name == "" {
			name = s.NextName()
		}
		s = s.WithDataset(ds, name)
	}
	return s
}

// Len returns the number of datasets.
func (s *State) Len() int { return len(s.Datasets) }

// Clone returns a shallow copy. Datasets are shared since they are immutable.
func (s *State) Clone() *State {
	if s == nil {
		return &State{}
	}
	return &State{
		Datasets:  append([]Dataset(nil), s.Datasets...),
		Names:     append([]string(nil), s.Names...),
		ColumnIDs: append([]ColumnIDMap(nil), s.ColumnIDs...),
	}
}

// NextName returns the default display name for a new dataset.
func (s *State) NextName() string {
	return "df" + strconv.Itoa(len(s.Datasets)+1)
}

// Dataset returns the dataset at index i.
func (s *State) Dataset(i int) (Dataset, error) {
	if i < 0 || i >= len(s.Datasets) {
		return Dataset{}, fmt.Errorf("dataset index %d out of range [0, %d)", i, len(s.Datasets))
	}
	return s.Datasets[i], nil
}

// WithDataset returns a new State with ds appended under name.
func (s *State) WithDataset(ds Dataset, name string) *State {
	next := s.Clone()
	next.Datasets = append(next.Datasets, ds)
	next.Names = append(next.Names, name)
	next.ColumnIDs = append(next.ColumnIDs, NewColumnIDMap(ds.Headers()))
	return next
}

// WithReplacedDataset returns a new State where dataset i is ds. Headers of
// ds that are new to the dataset get fresh column ids.
func (s *State) WithReplacedDataset(i int, ds Dataset) *State {
	next := s.Clone()
	next.Datasets[i] = ds
	ids := next.ColumnIDs[i]
	for _, h := range ds.Headers() {
		ids = ids.WithHeader(h)
	}
	next.ColumnIDs[i] = ids
	return next
}
