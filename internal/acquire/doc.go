// Package acquire obtains a local copy of a remote repository. Concrete
// strategies implement one acquisition method each and are tried in the
// configured priority order until one produces a populated directory.
package acquire
