/*
Package ports defines the driven ports (interfaces) of the stepsheet engine.

These interfaces decouple the session from the places analyses are kept, so
the same Analysis Log can live in memory, on disk or in Redis.

# Key Interfaces

  - AnalysisStore: persists and loads named Analysis Logs.
*/
package ports
