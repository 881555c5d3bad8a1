package store

import (
	"fmt"
	"strconv"
	"strings"
)

// CheckReadOnly rejects statements other than a single SELECT or WITH query.
// It is a syntactic filter only: a WITH can still wrap a write, so backends
// must also run the query on a read-only connection or transaction.
func CheckReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return fmt.Errorf("query must not be empty")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("only a single statement is allowed")
	}
	fields := strings.Fields(trimmed)
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return nil
	}
	return fmt.Errorf("only read-only queries are allowed, got %s", fields[0])
}

// PositionalArgs orders params keyed "1", "2", ... into query arguments.
func PositionalArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		if val, ok := params[strconv.Itoa(i)]; ok {
			args = append(args, val)
		}
	}
	return args
}
