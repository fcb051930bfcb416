// Package cmd implements the command-line interface of dEntity.
// It provides a hierarchical command structure with operations for running
// the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the dEntity server
//   - entity: Client commands (get, put, del, find, watch, perf, ...)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dentity -help for a list of all commands.
package cmd
