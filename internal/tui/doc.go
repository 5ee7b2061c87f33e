// Package tui is the interactive worker dashboard shown with --tui: one
// progress bar per worker, the overall bar with its ETA, a write throughput
// sparkline and host load. It receives worker progress through a
// ProgressReporter bridge and never blocks the merge.
package tui
