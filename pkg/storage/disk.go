// Package storage is the filesystem abstraction behind the receipt archive.
// Every finalized receipt and kitchen ticket is written through a Disk so the
// paper copy is never the only copy.
//
// Two drivers are available:
//   - "local" — local filesystem (default)
//   - "s3"    — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	storage.Connect()
//	storage.Put("receipts/2026/08/order-99.txt", data)
//	storage.Use("s3").Put("kot/order-99.txt", data)
package storage

import (
	"io"
	"time"
)

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, creating parents as needed.
	Put(path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(path string, r io.Reader) error

	// Get returns the full content of the file at path.
	Get(path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(path string) bool

	// Size returns the byte size of the file.
	Size(path string) (int64, error)

	// LastModified returns the file's last-modified time.
	LastModified(path string) (time.Time, error)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(path string) error

	// Files lists non-recursive paths directly inside directory.
	Files(directory string) ([]string, error)
}
