// Package cli constructs the reposcribe command-line interface, wiring the
// Cobra root command, configuration loader, and structured logging primitives
// to the repository extraction pipeline. It exposes helpers to build reusable
// application instances and to execute the root command as a library.
package cli
