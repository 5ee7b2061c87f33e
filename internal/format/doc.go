// Package format holds the display helpers shared by the CLI: durations,
// byte sizes and progress bars.
package format
