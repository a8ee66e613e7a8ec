// Package structure renders an indented text listing of a repository tree.
package structure
