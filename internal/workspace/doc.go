// Package workspace manages the temporary directories repositories are cloned
// into and guarantees their removal once processing finishes.
package workspace
