package sqlite

import (
	"fmt"

	"textwatch/internal/model"
)

const queryInsertRegion = `
	INSERT INTO regions (pass_id, x1, y1, x2, y2, score, text, confidence)
	VALUES (:pass_id, :x1, :y1, :x2, :y2, :score, :text, :confidence)
`

// RegionRepository implements repository.RegionRepository for SQLite.
type RegionRepository struct {
	db *DB
}

// NewRegionRepository creates a new SQLite region repository.
func NewRegionRepository(db *DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// InsertBatch adds multiple regions in a single transaction.
func (r *RegionRepository) InsertBatch(regions []model.Region) error {
	if len(regions) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(queryInsertRegion)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reg := range regions {
		if _, err := stmt.Exec(reg); err != nil {
			return fmt.Errorf("failed to insert region: %w", err)
		}
	}

	return tx.Commit()
}

// GetByPassID retrieves the regions of a pass in reading order.
func (r *RegionRepository) GetByPassID(passID int64) ([]model.Region, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	regions := []model.Region{}
	if err := r.db.Conn().Select(&regions, `
		SELECT id, pass_id, x1, y1, x2, y2, score, text, confidence
		FROM regions WHERE pass_id = ?
		ORDER BY id
	`, passID); err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	return regions, nil
}
