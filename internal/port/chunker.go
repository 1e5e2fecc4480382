package port

import "ragagent/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document) []domain.Chunk

	ChunkAll(docs []domain.Document) []domain.Chunk
}
