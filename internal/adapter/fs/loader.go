package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"ragagent/internal/domain"
	"ragagent/internal/port"
)

var _ port.DocumentLoader = (*Loader)(nil)

// Loader reads UTF-8 text files found by a FileWalker.
type Loader struct {
	walker port.FileWalker
}

func NewLoader(walker port.FileWalker) *Loader {
	return &Loader{walker: walker}
}

// Load returns the readable documents under root in path order. Files that
// cannot be read or are not valid UTF-8 are reported as ErrLoad and skipped.
func (l *Loader) Load(root string) ([]domain.Document, []error) {
	files, err := l.walker.Walk(root)
	if err != nil {
		return nil, []error{fmt.Errorf("%w: %s: %v", domain.ErrLoad, root, err)}
	}

	var (
		docs []domain.Document
		errs []error
	)
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", domain.ErrLoad, f.RelPath, err))
			continue
		}
		if !utf8.Valid(data) {
			errs = append(errs, fmt.Errorf("%w: %s: not valid UTF-8 text", domain.ErrLoad, f.RelPath))
			continue
		}

		path := filepath.ToSlash(filepath.Join(root, f.RelPath))
		docs = append(docs, domain.Document{
			ID:      DocumentID(path),
			Path:    path,
			Text:    string(data),
			ModTime: time.Unix(f.ModTime, 0),
		})
	}

	return docs, errs
}

// DocumentID derives a stable identifier from a document path.
func DocumentID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
