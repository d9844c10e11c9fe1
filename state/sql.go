package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// SQL is a database-backed Store: one row per conversation holding the
// full serialized ConversationState as JSON. Queries are built with
// github.com/Masterminds/squirrel against a github.com/mattn/go-sqlite3
// driver.
type SQL struct {
	db *sql.DB
}

// NewSQL opens (and migrates) a SQLite-backed Store at path. Pass
// ":memory:" for a throwaway in-process database.
func NewSQL(path string) (*SQL, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite database: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("state: create schema: %w", err)
	}
	return &SQL{db: db}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

func tagColumn(tags []string) string {
	return "|" + strings.Join(tags, "|") + "|"
}

func (s *SQL) Save(ctx context.Context, st *ConversationState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("state: marshal conversation %q: %w", st.ID, err)
	}

	query := sq.Insert("conversations").
		Columns("id", "data", "tags", "created_at", "updated_at").
		Values(st.ID, string(data), tagColumn(st.Metadata.Tags), st.CreatedAt.Unix(), st.UpdatedAt.Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("state: build insert: %w", err)
	}
	queryStr = strings.Replace(queryStr, "INSERT INTO", "INSERT OR REPLACE INTO", 1)

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

func (s *SQL) Load(ctx context.Context, id string) (*ConversationState, error) {
	query := sq.Select("data").From("conversations").Where(sq.Eq{"id": id})
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("state: build select: %w", err)
	}

	var data string
	if err := s.db.QueryRowContext(ctx, queryStr, args...).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, errNotFound(id)
		}
		return nil, fmt.Errorf("state: query conversation %q: %w", id, err)
	}

	var st ConversationState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("state: parse conversation %q: %w", id, err)
	}
	return &st, nil
}

func (s *SQL) Delete(ctx context.Context, id string) error {
	query := sq.Delete("conversations").Where(sq.Eq{"id": id})
	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("state: build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("state: delete conversation %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("state: delete conversation %q: %w", id, err)
	}
	if n == 0 {
		return errNotFound(id)
	}
	return nil
}

func (s *SQL) List(ctx context.Context) ([]*ConversationState, error) {
	query := sq.Select("data").From("conversations").OrderBy("updated_at DESC")
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("state: build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("state: list conversations: %w", err)
	}
	defer rows.Close()

	var out []*ConversationState
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("state: scan conversation row: %w", err)
		}
		var st ConversationState
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			return nil, fmt.Errorf("state: parse conversation row: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// FindByTags matches the tag intersection in Go rather than in SQL: the
// delimited tags column supports a cheap substring pre-filter per tag,
// but the final intersection check still runs through hasAllTags so
// SQL's behavior matches Memory's and File's exactly.
func (s *SQL) FindByTags(ctx context.Context, tags []string) ([]*ConversationState, error) {
	query := sq.Select("data").From("conversations")
	for _, tag := range tags {
		query = query.Where(sq.Like{"tags": "%|" + tag + "|%"})
	}
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("state: build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("state: find conversations by tags: %w", err)
	}
	defer rows.Close()

	var out []*ConversationState
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("state: scan conversation row: %w", err)
		}
		var st ConversationState
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			return nil, fmt.Errorf("state: parse conversation row: %w", err)
		}
		if hasAllTags(&st, tags) {
			out = append(out, &st)
		}
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQL) Close() error {
	return s.db.Close()
}

var _ Store = (*SQL)(nil)
