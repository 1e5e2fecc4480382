package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"ragagent/internal/domain"
	"ragagent/internal/port"
)

// CurrentSchemaVersion is the current on-disk format version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// CompatibilityResult describes whether a stored index can be served by
// the configured embedder.
type CompatibilityResult struct {
	Compatible bool
	Reason     string
}

// CheckCompatibility compares a stored fingerprint with the embedder that
// will be used to embed queries.
func CheckCompatibility(fp domain.Fingerprint, embedder port.Embedder) CompatibilityResult {
	switch {
	case fp.SchemaVersion > CurrentSchemaVersion:
		return CompatibilityResult{Reason: fmt.Sprintf("index created by newer version (v%d > v%d)", fp.SchemaVersion, CurrentSchemaVersion)}
	case fp.SchemaVersion < CurrentSchemaVersion:
		return CompatibilityResult{Reason: fmt.Sprintf("unsupported index schema v%d, rebuild required", fp.SchemaVersion)}
	case fp.Model != embedder.ModelName():
		return CompatibilityResult{Reason: fmt.Sprintf("index built with %q, configured model is %q", fp.Model, embedder.ModelName())}
	case fp.Dimension != embedder.Dimension():
		return CompatibilityResult{Reason: fmt.Sprintf("index dimension %d, configured dimension %d", fp.Dimension, embedder.Dimension())}
	}
	return CompatibilityResult{Compatible: true}
}

func readFingerprint(tx *bbolt.Tx) (*domain.Fingerprint, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, nil
	}
	data := b.Get(keyFingerprint)
	if data == nil {
		return nil, nil
	}

	var fp domain.Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("corrupt index fingerprint: %w", err)
	}
	return &fp, nil
}

func writeFingerprint(b *bbolt.Bucket, fp domain.Fingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return err
	}
	return b.Put(keyFingerprint, data)
}
