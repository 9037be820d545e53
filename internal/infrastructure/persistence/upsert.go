package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultUpsertBatchSize bounds the rows sent in one INSERT statement
const DefaultUpsertBatchSize = 500

// upsertAll writes rows with INSERT ... ON CONFLICT(key) DO UPDATE SET for
// every listed column, in chunks inside one transaction. A key repeated in
// the input keeps its last row, since one statement cannot update the same
// row twice.
func upsertAll[T any](ctx context.Context, db *gorm.DB, rows []T, key string, keyOf func(T) string, updateCols []string, batchSize int) (int, error) {
	rows = lastByKey(rows, keyOf)
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += batchSize {
			end := min(start+batchSize, len(rows))
			chunk := rows[start:end]
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: key}},
				DoUpdates: clause.AssignmentColumns(updateCols),
			}).Create(&chunk).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// lastByKey drops earlier duplicates, keeping each key at its first position
// with the value of its last occurrence.
func lastByKey[T any](rows []T, keyOf func(T) string) []T {
	pos := make(map[string]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if i, ok := pos[k]; ok {
			out[i] = r
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}
