// Package report renders the per-repository summary files: the processing
// summary with skip counts, the reserved general summary, and the clone
// failure record.
package report
