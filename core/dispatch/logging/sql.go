package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

const tableName = "dispatch_outcomes"

type dialect struct {
	schema string
	// placeholder renders the n-th bind parameter, starting at 1.
	placeholder func(n int) string
}

// SQLStore persists logs in a relational database.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	if _, err := db.Exec(d.schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLStore{db: db, d: d}, nil
}

// Append writes the record to the database.
func (s *SQLStore) Append(ctx context.Context, rec LogRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (ts, device_id, failed, record) VALUES (%s, %s, %s, %s)`,
		tableName, s.d.placeholder(1), s.d.placeholder(2), s.d.placeholder(3), s.d.placeholder(4))
	_, err = s.db.ExecContext(ctx, query, rec.Timestamp.UnixNano(), rec.DeviceID, rec.Failed(), string(b))
	return err
}

// Query returns records matching q ordered by time.
func (s *SQLStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	query, args := s.buildQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []LogRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r LogRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return q.trim(res), nil
}

func (s *SQLStore) buildQuery(q LogQuery) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		fmt.Fprintf(&b, " AND %s %s", cond, s.d.placeholder(len(args)))
	}
	fmt.Fprintf(&b, "SELECT record FROM %s WHERE 1=1", tableName)
	if !q.Start.IsZero() {
		add("ts >=", q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		add("ts <=", q.End.UnixNano())
	}
	if q.DeviceID != "" {
		add("device_id =", q.DeviceID)
	}
	if q.FailedOnly {
		add("failed =", true)
	}
	b.WriteString(" ORDER BY ts")
	return b.String(), args
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }
