// Package main hosts the setmend CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into set
// edits, sample checks and fixes, index maintenance, and configuration
// scaffolding. It centralizes configuration resolution and structured
// logging setup so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
