// Package models defines domain entities and persistence interfaces for the weekly playlist archiver.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing remote account data
//   - [Playlist] : Playlist metadata (id, name, owner, track count)
//   - [TrackRef] : A playlist entry reduced to its track identifier
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Run] : One archive run, its outcome and the playlists it touched
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
