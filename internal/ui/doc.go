// Package ui renders terminal status output with lipgloss.
//
// A fixed [Palette] styles every line the CLI prints:
//   - [Success] : "✓" lines for completed work, such as a new archive
//   - [Info] : "•" lines for runs that changed nothing
//   - [Warn] : "⚠" lines for recoverable problems
//   - [Error] : "✗" lines for failed runs
//
// [StatusLine] maps an archive run's result onto one of these, and [ProgressLine] renders the engine's progress
// updates while a run is in flight. When output is not a terminal lipgloss drops the styling, so the lines stay
// plain text in logs and pipes.
package ui
