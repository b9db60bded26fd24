package buildstamp

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/albertocavalcante/svnstamp/internal/log"
)

// errNoMetadata is wrapped in a QueryError when a shallow query yields nothing.
var errNoMetadata = errors.New("no version control metadata")

// errNoCommit is wrapped in a QueryError when the path has never been committed.
var errNoCommit = errors.New("path has no committed revision")

// Resolver computes build stamps from a Provider.
// It holds no state between calls; each call queries the provider afresh.
type Resolver struct {
	provider Provider
}

// NewResolver creates a Resolver backed by p.
func NewResolver(p Provider) *Resolver {
	return &Resolver{provider: p}
}

// LatestCommitTimestamp returns the most recent committed date of any
// versioned entry at or below root whose name is not in ignoreRaw.
//
// ignoreRaw is parsed with ParseIgnoreList. ok is false when no entry
// qualified: the tree is empty, every entry was ignored, or no entry carried
// a committed date. A provider failure is returned as a *QueryError and no
// partial result is reported.
func (r *Resolver) LatestCommitTimestamp(ctx context.Context, root, ignoreRaw string) (latest time.Time, ok bool, err error) {
	logger := log.Component("buildstamp")
	ignore := ParseIgnoreList(ignoreRaw)
	logger.Debug("resolving timestamp", "root", root, "ignored", ignore.Names())

	latest, ok, err = LatestCommit(r.provider.Walk(ctx, root), ignore)
	if err != nil {
		return time.Time{}, false, &QueryError{Op: "timestamp", Path: root, Err: err}
	}

	if ok {
		logger.Info("resolved timestamp", "root", root, "timestamp", latest)
	} else {
		logger.Info("no entry contributed a committed date", "root", root)
	}
	return latest, ok, nil
}

// Revision returns the committed revision of root itself in base 10.
//
// ignoreRaw is accepted for symmetry with LatestCommitTimestamp and has no
// effect: the query targets root alone. If the provider reports more than
// one record, the last one wins. A root without a commit record (scheduled
// for addition) is a *QueryError rather than revision 0.
func (r *Resolver) Revision(ctx context.Context, root, ignoreRaw string) (string, error) {
	logger := log.Component("buildstamp")
	_ = ignoreRaw

	var (
		last  FileInfo
		found bool
	)
	for fi, err := range r.provider.Info(ctx, root) {
		if err != nil {
			return "", &QueryError{Op: "revision", Path: root, Err: err}
		}
		last, found = fi, true
	}
	if !found {
		return "", &QueryError{Op: "revision", Path: root, Err: errNoMetadata}
	}

	if !last.HasCommit() {
		return "", &QueryError{Op: "revision", Path: root, Err: errNoCommit}
	}

	rev := strconv.FormatInt(last.CommittedRevision, 10)
	logger.Info("resolved revision", "root", root, "revision", rev)
	return rev, nil
}

// LatestCommit folds entries into the latest committed date, skipping
// entries named in ignore and entries without a committed date.
//
// The first error in entries aborts the fold and is returned as is.
func LatestCommit(entries iter.Seq2[FileInfo, error], ignore IgnoreSet) (time.Time, bool, error) {
	var (
		latest time.Time
		ok     bool
	)
	for fi, err := range entries {
		if err != nil {
			return time.Time{}, false, err
		}
		if ignore.Contains(fi.Name) {
			log.V(log.VerbosityTrace).Debug("ignoring entry", "path", fi.Path)
			continue
		}
		if !fi.HasCommit() {
			continue
		}
		if !ok || fi.CommittedDate.After(latest) {
			latest, ok = fi.CommittedDate, true
		}
	}
	return latest, ok, nil
}
