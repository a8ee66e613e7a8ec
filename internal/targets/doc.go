// Package targets locates and reads the listing of repository URLs to process.
package targets
