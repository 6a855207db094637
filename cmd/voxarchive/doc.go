// Package main hosts the voxarchive CLI entrypoint and command graph.
//
// Each pipeline stage (discover, resolve, download, transcribe, classify) is
// its own subcommand and runs as an independent batch job over the catalog,
// holding the catalog lock for the duration of the run. Reporting commands
// (stats, export, status, check) read the same files. Configuration is
// resolved once per invocation and shared by every subcommand.
//
// Keep this package lean: behaviour belongs in the internal packages, and
// commands here only wire configuration, logging and output together.
package main
