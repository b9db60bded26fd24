// Package buildstamp derives deterministic build stamps from version control metadata.
//
// # Timestamp
//
// The build timestamp of a project is the most recent committed date of any
// versioned entry at or below the project directory. Entries whose bare file
// name is on the ignore list are skipped before the reduction, so files that
// change on every release (pom.xml, MANIFEST.MF) do not move the timestamp.
//
// The reduction is a plain maximum, so the order in which a Provider yields
// entries never changes the result.
//
// # Revision
//
// The revision stamp is the committed revision of the project directory
// itself, rendered in base 10. It is a shallow lookup, not a reduction.
package buildstamp

import (
	"context"
	"iter"
	"time"
)

// Kind is the node kind reported for a versioned entry.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "dir"
)

// FileInfo is the metadata a Provider reports for one versioned entry.
type FileInfo struct {
	Path string // Path as reported by the provider
	Name string // Bare file name (last path element)
	Kind Kind

	// CommittedDate is the date of the last commit touching the entry.
	// The zero value means the provider reported no commit.
	CommittedDate     time.Time
	CommittedRevision int64
}

// HasCommit reports whether the entry carries a committed date.
func (fi FileInfo) HasCommit() bool {
	return !fi.CommittedDate.IsZero()
}

// Provider exposes version control metadata for a working copy.
//
// Both queries yield entries in the order the backend delivers them; no
// ordering is assumed by consumers. A non-nil error ends the sequence.
type Provider interface {
	// Walk yields every versioned entry at or below root, directories included.
	Walk(ctx context.Context, root string) iter.Seq2[FileInfo, error]

	// Info yields the metadata of path alone, without recursion.
	Info(ctx context.Context, path string) iter.Seq2[FileInfo, error]
}
