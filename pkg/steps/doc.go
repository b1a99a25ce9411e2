/*
Package steps implements the closed set of edit actions an analysis is made of.

Each kind implements Performer: it resolves raw parameters against the
previous State (Saturate), produces the next State (Execute), renders the
equivalent pandas lines (Transpile) and a human description (Describe), and
reports which datasets it touched (ModifiedDatasetIndexes).

Parameters cross the package boundary as map[string]any and are decoded into
one typed struct per kind before any other method sees them.

Kinds that own a derived column also implement Deriver, which lets a session
recompute that column in place when an upstream step changes its dataset.
*/
package steps
