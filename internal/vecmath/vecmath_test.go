package vecmath

import (
	"math"
	"testing"

	"ragagent/internal/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"scaled", []float32{1, 2}, []float32{2, 4}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTopK_OrderAndTies(t *testing.T) {
	entries := []domain.IndexEntry{
		{ID: 0, Vector: []float32{0, 1}},
		{ID: 1, Vector: []float32{1, 0}},
		{ID: 2, Vector: []float32{1, 1}},
		{ID: 3, Vector: []float32{2, 0}}, // same direction as 1
	}

	got := TopK([]float32{1, 0}, entries, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}

	wantIDs := []int{1, 3, 2}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d (scores %+v)", i, id, got[i].ID, got)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("results not sorted by descending score: %+v", got)
		}
	}
}

func TestTopK_FewerEntriesThanK(t *testing.T) {
	entries := []domain.IndexEntry{
		{ID: 0, Vector: []float32{1, 0}},
		{ID: 1, Vector: []float32{0, 1}},
	}

	got := TopK([]float32{1, 1}, entries, 10)
	if len(got) != 2 {
		t.Fatalf("expected all 2 entries, got %d", len(got))
	}
	if got[0].ID != 0 || got[1].ID != 1 {
		t.Errorf("equal scores should be ordered by id, got %d,%d", got[0].ID, got[1].ID)
	}
}

func TestTopK_NonPositiveK(t *testing.T) {
	entries := []domain.IndexEntry{{ID: 0, Vector: []float32{1}}}
	if got := TopK([]float32{1}, entries, 0); len(got) != 0 {
		t.Errorf("expected no results for k=0, got %d", len(got))
	}
	if got := TopK([]float32{1}, nil, 3); len(got) != 0 {
		t.Errorf("expected no results for empty index, got %d", len(got))
	}
}

func BenchmarkTopK(b *testing.B) {
	const (
		n   = 10000
		dim = 384
	)
	entries := make([]domain.IndexEntry, n)
	for i := range entries {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = float32((i*31+j*17)%97) / 97
		}
		entries[i] = domain.IndexEntry{ID: i, Vector: vec}
	}
	query := entries[n/2].Vector

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TopK(query, entries, 5)
	}
}
