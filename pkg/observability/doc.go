/*
Package observability provides tools for monitoring the stepsheet session.

It turns session lifecycle hooks into Prometheus metrics and structured log
records. Both are plain domain.LifecycleHooks values and can be combined with
Chain.
*/
package observability
