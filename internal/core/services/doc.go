// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are safe for concurrent use: TUI commands, the upload
// watcher and MCP handlers all call them from their own goroutines.
package services
