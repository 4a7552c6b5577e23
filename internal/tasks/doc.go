// Package tasks decides whether the weekly playlist has been archived and archives it when it has not.
//
// # Run Sequence
//
// [ArchiveEngine.Run] walks a fixed sequence of phases and aborts on the first error:
//
//  1. [Locate] : page through the account's playlists for the weekly playlist (name and owner, case-sensitive)
//  2. [FetchTracks] : read every track id of the weekly playlist, keeping playlist order
//  3. [FindArchive] : compare the [Canonical] ids against every other 30-track playlist
//  4. archive : create "DD-MM-YY DW" and insert the tracks in their original order with one call
//
// Step 4 only runs when no archive matched and the engine is not in dry-run mode.
//
// # Archive Matching
//
// Two playlists hold the same week when their ids, sorted ascending, agree in all 30 positions. Absent ids (local or
// removed tracks) are empty strings and sort first. Track order is ignored, so a reshuffled week counts as archived.
//
// # Run Context
//
// Everything a run learns before deciding is captured in a [RunContext] that the steps receive explicitly. There is
// no state shared between runs.
//
// # Progress Reporting
//
// Runs use non-blocking channels for progress updates. The [ProgressUpdate] struct contains the phase, step counters,
// a message and optional data. Updates use select with default to prevent blocking.
//
// # History
//
// The optional [RunRecorder] stores each run (repositories.RunRepository). History is informational: archive
// decisions always come from the account itself.
package tasks
