// Package export writes frame and memory history to compressed JSON
// documents for offline analysis.
package export

import (
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/lumen/pkg/compression"
	"github.com/ajitpratap0/lumen/pkg/errors"
	"github.com/ajitpratap0/lumen/pkg/memory"
	"github.com/ajitpratap0/lumen/pkg/performance"
)

// Document is the exported layout.
type Document struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Count       int                    `json:"count"`
	Snapshots   []performance.Snapshot `json:"snapshots"`
	Memory      []memory.Snapshot      `json:"memory,omitempty"`
	Report      *performance.Report    `json:"report,omitempty"`
}

var now = time.Now

// NewDocument stamps a document for the given frame history.
func NewDocument(snapshots []performance.Snapshot) *Document {
	if snapshots == nil {
		snapshots = []performance.Snapshot{}
	}
	return &Document{
		GeneratedAt: now().UTC(),
		Count:       len(snapshots),
		Snapshots:   snapshots,
	}
}

// WriteHistory writes a document holding snapshots to w, compressed with algorithm.
func WriteHistory(w io.Writer, snapshots []performance.Snapshot, algorithm compression.Algorithm) error {
	return WriteDocument(w, NewDocument(snapshots), algorithm)
}

// WriteDocument writes doc to w, compressed with algorithm.
func WriteDocument(w io.Writer, doc *Document, algorithm compression.Algorithm) error {
	doc.Count = len(doc.Snapshots)

	cw, err := compression.NewWriter(w, algorithm, compression.Default)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(cw).Encode(doc); err != nil {
		_ = cw.Close()
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode history").
			WithDetail("algorithm", string(algorithm))
	}
	if err := cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to flush history").
			WithDetail("algorithm", string(algorithm))
	}
	return nil
}

// ReadHistory decodes a document written by WriteDocument.
func ReadHistory(r io.Reader, algorithm compression.Algorithm) (*Document, error) {
	cr, err := compression.NewReader(r, algorithm)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	var doc Document
	if err := json.NewDecoder(cr).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode history").
			WithDetail("algorithm", string(algorithm))
	}
	if doc.Count != len(doc.Snapshots) {
		return nil, errors.Newf(errors.ErrorTypeData, "history count %d does not match %d snapshots",
			doc.Count, len(doc.Snapshots))
	}
	return &doc, nil
}

// AlgorithmForPath picks the compression from the file extension.
func AlgorithmForPath(path string) compression.Algorithm {
	return compression.ForPath(path)
}

// WriteFile writes doc to path, compressing according to its extension.
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create export file").
			WithDetail("path", path)
	}
	if err := WriteDocument(f, doc, AlgorithmForPath(path)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close export file").
			WithDetail("path", path)
	}
	return nil
}

// ReadFile reads a document written by WriteFile.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open export file").
			WithDetail("path", path)
	}
	defer f.Close()
	return ReadHistory(f, AlgorithmForPath(path))
}
