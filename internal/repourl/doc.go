// Package repourl parses remote repository URLs into the coordinates used to
// label extraction outputs and drive clone strategies.
package repourl
