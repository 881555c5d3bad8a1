package sqlite

import (
	"context"
	"fmt"
	"strings"

	"livingcanon/internal/canon"
	"livingcanon/internal/store"
)

// SearchSources ranks sources by full-text relevance. Text weighs most,
// then tags, then figure and body.
func (c *Client) SearchSources(ctx context.Context, query, figure string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	figure = canon.NormalizeFigure(figure)

	sqlQuery := `
	SELECT s.id, s.figure, s.source_type,
		   bm25(sources_fts, 2.0, 4.0, 10.0, 1.0) AS score,
		   snippet(sources_fts, 2, '**', '**', '...', 32) AS snippet
	FROM sources_fts
	JOIN sources s ON sources_fts.rowid = s.rowid
	WHERE sources_fts MATCH ?
	  AND (? = '' OR s.figure_normalized = ?)
	ORDER BY score ASC, s.id ASC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, convertWebsearchToFTS5(query), figure, figure)
	if err != nil {
		return nil, fmt.Errorf("searching sources: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.ID, &r.Figure, &r.SourceType, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		// bm25 is negative; flip it so higher means more relevant.
		r.Score = -r.Score
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// convertWebsearchToFTS5 turns web-style search input into an FTS5 query.
// Adjacent terms are ANDed and a leading '-' excludes a term.
func convertWebsearchToFTS5(query string) string {
	var result strings.Builder
	var inQuote bool
	var current strings.Builder

	flushToken := func() {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}

		upper := strings.ToUpper(token)
		switch upper {
		case "AND", "OR", "NOT":
			if result.Len() > 0 {
				result.WriteString(" ")
			}
			result.WriteString(upper)
			return
		}

		negated := strings.HasPrefix(token, "-") && len(token) > 1
		if negated {
			token = token[1:]
		}
		if result.Len() > 0 {
			switch last := lastWord(result.String()); {
			case last == "AND" || last == "OR" || last == "NOT":
				result.WriteString(" ")
			case negated:
				result.WriteString(" NOT ")
			default:
				result.WriteString(" AND ")
			}
		}
		result.WriteString(token)
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				token := current.String()
				current.Reset()
				if token != "" {
					if result.Len() > 0 {
						result.WriteString(" AND ")
					}
					result.WriteString(`"`)
					result.WriteString(token)
					result.WriteString(`"`)
				}
			} else {
				flushToken()
				inQuote = true
			}
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flushToken()
		default:
			current.WriteByte(ch)
		}
	}

	flushToken()

	return result.String()
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
