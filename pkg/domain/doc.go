/*
Package domain contains the core data model of the stepsheet engine.

It defines the tabular values that steps operate on and the records that make
an analysis replayable. The package is kept free of I/O and persistence so
every other layer can depend on it.

# Key Entities

  - Column: a named, typed vector of values where nil marks a missing value.
  - Dataset: an ordered set of columns sharing one positional row index.
  - State: the immutable snapshot of all datasets, their display names and
    their column id maps, produced by executing one step.
  - Analysis: the persisted log of step records ({kind, version, params}).
*/
package domain
