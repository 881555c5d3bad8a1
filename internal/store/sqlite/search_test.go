package sqlite

import (
	"testing"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple term", input: "alchemy", expected: "alchemy"},
		{name: "multiple terms", input: "angelic tongues", expected: "angelic AND tongues"},
		{name: "explicit AND", input: "dream AND egg", expected: "dream AND egg"},
		{name: "explicit OR", input: "dream OR egg", expected: "dream OR egg"},
		{name: "negation", input: "theater -cruelty", expected: "theater NOT cruelty"},
		{name: "phrase", input: `"spaceship earth"`, expected: `"spaceship earth"`},
		{name: "phrase with other term", input: `"spaceship earth" geodesic`, expected: `"spaceship earth" AND geodesic`},
		{name: "prefix search", input: "qabal*", expected: "qabal*"},
		{
			name:     "complex query",
			input:    `"sacred numbers" -uriel angel OR monas`,
			expected: `"sacred numbers" NOT uriel AND angel OR monas`,
		},
		{name: "NOT operator", input: "asylum NOT freedom", expected: "asylum NOT freedom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		want    string
		wantErr bool
	}{
		{dsn: "sqlite://:memory:", want: ":memory:"},
		{dsn: "sqlite:///var/lib/canon.db", want: "/var/lib/canon.db"},
		{dsn: "sqlite://./canon.db", want: "./canon.db"},
		{dsn: "sqlite://canon.db?_pragma=busy_timeout(5000)", want: "./canon.db?_pragma=busy_timeout(5000)"},
		{dsn: "sqlite://my%20canon.db", want: "./my canon.db"},
		{dsn: "postgres://localhost/canon", wantErr: true},
		{dsn: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := parseDSN(tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("parseDSN(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	ddl := `
	CREATE TABLE a (id INTEGER);
	-- comment
	CREATE TRIGGER t AFTER INSERT ON a BEGIN
		INSERT INTO b VALUES (new.id);
		INSERT INTO c VALUES (new.id);
	END;
	CREATE INDEX i ON a (id);
	`
	statements := splitStatements(ddl)
	if len(statements) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(statements), statements)
	}
}
