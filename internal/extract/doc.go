// Package extract copies the text files of a cloned repository into a flat
// directory of annotated copies and classifies everything it declines to copy.
//
// Classification applies a fixed decision order per file: version-control
// metadata first, then the binary extension denylist, then the size ceiling,
// then a strict UTF-8 validity check. An oversized image is therefore
// reported as extension-filtered, not oversized.
package extract
