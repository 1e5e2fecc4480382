package port

import "ragagent/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string // absolute
	RelPath string // relative to the walked root, slash separated
	ModTime int64
	Size    int64
}

// DocumentLoader reads every document under root. Per-document failures are
// returned alongside the documents that did load.
type DocumentLoader interface {
	Load(root string) ([]domain.Document, []error)
}
