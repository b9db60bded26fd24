package svn

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/albertocavalcante/svnstamp/pkg/buildstamp"
)

// Entry mirrors one <entry> element of `svn info --xml`.
type Entry struct {
	Kind     string  `xml:"kind,attr"`
	Path     string  `xml:"path,attr"`
	Revision int64   `xml:"revision,attr"`
	URL      string  `xml:"url"`
	WCRoot   string  `xml:"wc-info>wcroot-abspath"`
	Commit   *Commit `xml:"commit"`
}

// Commit mirrors the <commit> element of an entry.
// Entries scheduled for addition have none.
type Commit struct {
	Revision int64  `xml:"revision,attr"`
	Author   string `xml:"author"`
	Date     string `xml:"date"`
}

// fileInfo converts the entry, parsing the commit date.
func (e *Entry) fileInfo() (buildstamp.FileInfo, error) {
	fi := buildstamp.FileInfo{
		Path: e.Path,
		Name: filepath.Base(e.Path),
		Kind: buildstamp.Kind(e.Kind),
	}
	if e.Commit == nil {
		return fi, nil
	}

	fi.CommittedRevision = e.Commit.Revision
	if e.Commit.Date == "" {
		return fi, nil
	}
	date, err := time.Parse(time.RFC3339Nano, e.Commit.Date)
	if err != nil {
		return buildstamp.FileInfo{}, fmt.Errorf("invalid commit date for %s: %w", e.Path, err)
	}
	fi.CommittedDate = date.UTC()
	return fi, nil
}

// decoder reads <entry> elements from an svn info XML stream.
type decoder struct {
	xml *xml.Decoder
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{xml: xml.NewDecoder(r)}
}

// next returns the next entry, or io.EOF when the stream ends cleanly.
func (d *decoder) next() (*Entry, error) {
	for {
		tok, err := d.xml.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "entry" {
			continue
		}
		var e Entry
		if err := d.xml.DecodeElement(&e, &start); err != nil {
			return nil, fmt.Errorf("failed to decode svn entry: %w", err)
		}
		return &e, nil
	}
}
