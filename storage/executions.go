package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"tooldeck/model"
)

// ExecutionMirror is the persisted reflection of the bounded execution
// ledger. It implements record.Mirror: Replace rewrites the whole capped
// list transactionally, Load returns it newest-first.
type ExecutionMirror struct {
	store *Store
	cap   int
}

// ExecutionMirror returns a mirror over this store's executions table.
func (s *Store) ExecutionMirror(capacity int) *ExecutionMirror {
	if capacity <= 0 {
		capacity = 100
	}
	return &ExecutionMirror{store: s, cap: capacity}
}

// Load returns the persisted records, newest first, capped.
func (m *ExecutionMirror) Load() ([]model.ExecutionRecord, error) {
	rows, err := m.store.db.Query(
		`SELECT id, tool_id, tool_name, input, output, start_time, end_time, status, metrics
		 FROM executions ORDER BY position ASC LIMIT ?`,
		m.cap,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ExecutionRecord
	for rows.Next() {
		var (
			rec        model.ExecutionRecord
			endTime    sql.NullTime
			rawMetrics string
			status     string
		)
		err := rows.Scan(
			&rec.ID,
			&rec.ToolID,
			&rec.ToolName,
			&rec.Input,
			&rec.Output,
			&rec.StartTime,
			&endTime,
			&status,
			&rawMetrics,
		)
		if err != nil {
			continue
		}
		rec.Status = model.ExecutionStatus(status)
		if endTime.Valid {
			t := endTime.Time
			rec.EndTime = &t
		}
		if rawMetrics != "" {
			_ = json.Unmarshal([]byte(rawMetrics), &rec.Metrics)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Replace rewrites the persisted list. The incoming slice is newest-first;
// positions are stored so Load restores the same order.
func (m *ExecutionMirror) Replace(records []model.ExecutionRecord) error {
	if len(records) > m.cap {
		records = records[:m.cap]
	}

	tx, err := m.store.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM executions`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO executions (id, position, tool_id, tool_name, input, output, start_time, end_time, status, metrics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		metrics, err := json.Marshal(rec.Metrics)
		if err != nil {
			return fmt.Errorf("failed to encode metrics for %s: %w", rec.ID, err)
		}

		var endTime any
		if rec.EndTime != nil {
			endTime = *rec.EndTime
		}

		_, err = stmt.Exec(
			rec.ID,
			i,
			rec.ToolID,
			rec.ToolName,
			rec.Input,
			rec.Output,
			rec.StartTime,
			endTime,
			string(rec.Status),
			string(metrics),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
