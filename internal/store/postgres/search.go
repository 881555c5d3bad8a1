package postgres

import (
	"context"
	"fmt"
	"strings"

	"livingcanon/internal/canon"
	"livingcanon/internal/store"
)

func (c *Client) SearchSources(ctx context.Context, query, figure string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT id, figure, source_type,
    ts_rank(search_vector, websearch_to_tsquery('english', $1)) AS score,
    ts_headline('english', authentic_text, websearch_to_tsquery('english', $1),
        'MaxFragments=2, MaxWords=40, MinWords=20, StartSel=**, StopSel=**') AS snippet
FROM sources
WHERE search_vector @@ websearch_to_tsquery('english', $1)
  AND ($2 = '' OR figure_normalized = $2)
ORDER BY score DESC, id ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, canon.NormalizeFigure(figure))
	if err != nil {
		return nil, fmt.Errorf("searching sources: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var score float32
		if err := rows.Scan(&r.ID, &r.Figure, &r.SourceType, &score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(score)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}
