package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetEmbeddings returns stored embeddings keyed by content id. Ids without an
// embedding are absent from the map.
func (db *DB) GetEmbeddings(ctx context.Context, ids []int64) (map[int64][]float32, error) {
	out := make(map[int64][]float32, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT content_id, embedding FROM content_embeddings WHERE content_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		vec, err := decodeEmbedding(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for content %d: %w", id, err)
		}
		if len(vec) > 0 {
			out[id] = vec
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get embeddings: %w", err)
	}
	return out, nil
}

// UpsertEmbedding stores the embedding of one content item.
func (db *DB) UpsertEmbedding(ctx context.Context, contentID int64, vec []float32, model string) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO content_embeddings (content_id, embedding, model)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (content_id) DO UPDATE SET embedding = $2, model = $3, updated_at = NOW()`,
		contentID, raw, model,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding for content %d: %w", contentID, err)
	}
	return nil
}

func decodeEmbedding(raw []byte) ([]float32, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
