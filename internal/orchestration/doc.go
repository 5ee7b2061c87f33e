// Package orchestration runs a merge batch: it pre-sizes the destination,
// drives one worker per source unit through allocation, chunked reads and
// positioned writes, and turns the workers' outcomes into a single valid or
// invalid batch. Presentation is kept out through ProgressReporter and
// SummaryPresenter.
package orchestration
