package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"textwatch/internal/dto"
	"textwatch/internal/model"
)

const (
	passColumns = `id, session_id, timestamp, raw_text, text, emitted, duration_ms, region_count`

	queryInsertPass = `
		INSERT INTO passes (session_id, timestamp, raw_text, text, emitted, duration_ms, region_count)
		VALUES (:session_id, :timestamp, :raw_text, :text, :emitted, :duration_ms, :region_count)
	`
)

// PassRepository implements repository.PassRepository for SQLite.
type PassRepository struct {
	db *DB
}

// NewPassRepository creates a new SQLite pass repository.
func NewPassRepository(db *DB) *PassRepository {
	return &PassRepository{db: db}
}

// Insert adds a new pass record to the database.
func (r *PassRepository) Insert(p *model.Pass) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().NamedExec(queryInsertPass, p)
	if err != nil {
		return 0, fmt.Errorf("failed to insert pass: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a pass by its ID. A missing pass is (nil, nil).
func (r *PassRepository) GetByID(id int64) (*model.Pass, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var p model.Pass
	err := r.db.Conn().Get(&p, `SELECT `+passColumns+` FROM passes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	return &p, nil
}

// whereClause builds the shared filter part of the list and count queries.
func whereClause(filter *dto.PassFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}

	if filter == nil {
		return query, args
	}

	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}

	if filter.Emitted != nil {
		query += " AND emitted = ?"
		args = append(args, *filter.Emitted)
	}

	return query, args
}

// GetAll retrieves passes based on filter criteria, newest first.
func (r *PassRepository) GetAll(filter *dto.PassFilter) ([]model.Pass, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT ` + passColumns + ` FROM passes` + where + " ORDER BY timestamp DESC, id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	passes := []model.Pass{}
	if err := r.db.Conn().Select(&passes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	return passes, nil
}

// GetTotalCount returns the total count of passes matching the filter.
func (r *PassRepository) GetTotalCount(filter *dto.PassFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().Get(&count, `SELECT COUNT(*) FROM passes`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count passes: %w", err)
	}

	return count, nil
}

// GetSessions returns the IDs of all recorded sessions, oldest first.
func (r *PassRepository) GetSessions() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var sessions []string
	if err := r.db.Conn().Select(&sessions, `
		SELECT session_id FROM passes
		GROUP BY session_id
		ORDER BY MIN(timestamp)
	`); err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	return sessions, nil
}

// DeleteBySession removes every pass of a session together with its regions.
func (r *PassRepository) DeleteBySession(sessionID string) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM regions WHERE pass_id IN (SELECT id FROM passes WHERE session_id = ?)
	`, sessionID); err != nil {
		return fmt.Errorf("failed to delete regions: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM passes WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete passes: %w", err)
	}
	return tx.Commit()
}
