// package models defines the data model for the weekly playlist archiver
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Playlist represents a playlist read from the remote account.
type Playlist struct {
	ID         string
	Name       string
	OwnerID    string
	TrackCount int
	Public     bool
}

// Is reports whether the playlist has exactly the given name and owner.
func (p Playlist) Is(name, ownerID string) bool {
	return p.Name == name && p.OwnerID == ownerID
}

// TrackRef is a playlist entry reduced to its track identifier.
//
// Local files and removed tracks have no identifier; ID is then empty.
type TrackRef struct {
	ID string
}

// Absent reports whether the entry has no track identifier.
func (t TrackRef) Absent() bool {
	return t.ID == ""
}
