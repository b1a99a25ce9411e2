/*
Package transpile regenerates the pandas script equivalent to an Analysis Log.

Lines come out in log order. Each step contributes its own lines followed by
the lines of the derived columns it refreshed. Transpile reads only the log,
so calling it any number of times over the same log yields the same text.
*/
package transpile
