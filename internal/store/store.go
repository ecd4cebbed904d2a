package store

import "github.com/partsbin/partsbin/internal/component"

// Store is the contract shared by every inventory backend. Dedup rejections
// and unknown ids are reported as false or nil results with a nil error;
// only I/O failures surface as errors.
type Store interface {
	// Dedup lookups
	HasFile(path string) (bool, error)
	HasHash(hash string) (bool, error)

	// Add stamps file and hash (and a generated id when absent) onto c and
	// persists it. It returns false without mutating anything when the
	// file, hash or id is already present.
	Add(c component.Component, file, hash string) (bool, error)

	// Queries
	ListAll(opts *ListOptions) ([]component.Component, error)
	Search(query, field string) ([]component.Component, error)
	GetByID(id string) (component.Component, error)
	Count() (int, error)
	GetStats() (*Stats, error)

	// Mutations
	Update(id string, fields map[string]any) (bool, error)
	Delete(id string) (bool, error)

	// ImportDB loads the document at path and adds every normalized record,
	// skipping those that violate the dedup invariants.
	ImportDB(path string) (*ImportSummary, error)

	// Path returns the backing location.
	Path() string
	Close() error
}
