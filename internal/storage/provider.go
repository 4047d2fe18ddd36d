// Package storage defines the note-directory file-system abstraction.
package storage

import "time"

// NoteExt is the file extension every note carries.
const NoteExt = ".typ"

// FileMeta describes one note file on disk.
type FileMeta struct {
	Path      string // relative to the note directory
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for note-directory file operations. All paths
// are relative to the note directory.
type Provider interface {
	// List returns metadata for every valid note file.
	List() ([]FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
