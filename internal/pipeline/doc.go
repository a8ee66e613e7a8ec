// Package pipeline sequences one full run: load the target list, then for
// each repository acquire a working tree, emit the structure listing, extract
// the text files, and write the summary reports. Failures in one repository
// never abort the remaining repositories.
package pipeline
