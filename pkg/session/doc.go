/*
Package session implements the steps manager of one analysis.

A Manager owns the Analysis Log and the State it produces. It applies steps,
undoes and redoes them, replays whole logs transactionally and regenerates
the equivalent script. After each step it recomputes the derived columns
whose dataset the step modified, in the order they were applied.
*/
package session
