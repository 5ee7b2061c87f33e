// Package metrics records merge counters in Prometheus form and samples
// runtime memory usage for the summary.
package metrics
