package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search over the
// documents table.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

const pgftsVector = "to_tsvector('english', data::text)"

// Search ranks matching documents with ts_rank and cuts snippets with
// ts_headline.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := fmt.Sprintf("collection IN ('projects', 'logs', 'skills') AND %s @@ plainto_tsquery('english', $1)", pgftsVector)
	args := []any{q.Text}
	if collection := q.FilterType.collection(); collection != "" {
		where += " AND collection = $2"
		args = append(args, collection)
	}

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, "SELECT count(*) FROM documents WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT collection, id,
			coalesce(data->>'title', data->>'category', '') AS title,
			ts_headline('english',
				coalesce(data->>'description', data->>'content', data->>'items', ''),
				plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet
		FROM documents
		WHERE %s
		ORDER BY ts_rank(%s, plainto_tsquery('english', $1)) DESC, id ASC
		LIMIT %d OFFSET %d`, where, pgftsVector, limit, offset), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var collection string
		if err := rows.Scan(&collection, &r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = collectionType(collection)
		results = append(results, r)
	}
	return results, total, rows.Err()
}
