package validate

import (
	"strings"
	"testing"

	"livingcanon/internal/canon"
	"livingcanon/internal/config"
)

func defaultCanon(t *testing.T) *canon.Canon {
	t.Helper()
	c, err := canon.Default()
	if err != nil {
		t.Fatalf("default canon: %v", err)
	}
	return c
}

func defaultSchema(t *testing.T) *config.Schema {
	t.Helper()
	schema, err := config.DefaultSchema()
	if err != nil {
		t.Fatalf("default schema: %v", err)
	}
	return schema
}

func TestRun_DefaultCanon(t *testing.T) {
	report, err := Run(defaultCanon(t), defaultSchema(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.HasErrors() {
		t.Fatalf("expected no errors, got %+v", report.Issues)
	}
	if !hasIssue(report.Issues, codeRegionNotTraumaSafe, "dada_cabaret") {
		t.Fatalf("expected dada_cabaret trauma warning")
	}
	if !hasIssue(report.Issues, codeUnpoweredFigure, "Max Ernst") {
		t.Fatalf("expected Max Ernst to fall back to the default power")
	}
	if hasIssue(report.Issues, codeUnpoweredFigure, "Leonora Carrington") {
		t.Fatalf("did not expect a power warning for Leonora Carrington")
	}
	if hasCode(report.Issues, codeUnreachableRegion) {
		t.Fatalf("expected every default region to be reachable")
	}
}

func TestRun_Issues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *canon.Canon)
		code     string
		subject  string
		severity Severity
	}{
		{
			name:     "unknown source type",
			mutate:   func(c *canon.Canon) { c.Sources[0].SourceType = "tweet" },
			code:     codeUnknownSourceType,
			subject:  "carrington_dream_01",
			severity: SeverityError,
		},
		{
			name: "portal resonates with unknown archetype",
			mutate: func(c *canon.Canon) {
				c.Regions[0].Portals[0].ArchetypeResonance = []int{13}
			},
			code:     codeUnknownResonance,
			subject:  "carrington_asylum",
			severity: SeverityError,
		},
		{
			name:     "unknown starting figure",
			mutate:   func(c *canon.Canon) { c.Start.ActiveFigures = []string{"Remedios Varo"} },
			code:     codeUnknownStartingFigure,
			subject:  "Remedios Varo",
			severity: SeverityError,
		},
		{
			name: "unreachable region",
			mutate: func(c *canon.Canon) {
				for i := range c.Regions {
					if c.Regions[i].ID == "dada_cabaret" {
						c.Regions[i].Portals = nil
					}
				}
			},
			code:     codeUnreachableRegion,
			subject:  "digital_consciousness_lab",
			severity: SeverityWarn,
		},
		{
			name:     "source by unknown figure",
			mutate:   func(c *canon.Canon) { c.Sources[0].Figure = "Remedios Varo" },
			code:     codeUnknownFigure,
			subject:  "carrington_dream_01",
			severity: SeverityWarn,
		},
		{
			name:     "undeclared archetype tag",
			mutate:   func(c *canon.Canon) { c.Sources[0].ArchetypeTags = append(c.Sources[0].ArchetypeTags, "hanged_man") },
			code:     codeUnknownArchetypeTag,
			subject:  "carrington_dream_01",
			severity: SeverityWarn,
		},
		{
			name: "figure without sound profile",
			mutate: func(c *canon.Canon) {
				c.SoundProfiles = c.SoundProfiles[1:]
			},
			code:     codeFigureWithoutSound,
			severity: SeverityWarn,
		},
		{
			name: "figure without sources",
			mutate: func(c *canon.Canon) {
				c.Sources = nil
			},
			code:     codeFigureWithoutSources,
			subject:  "Leonora Carrington",
			severity: SeverityWarn,
		},
		{
			name: "collision without sources",
			mutate: func(c *canon.Canon) {
				c.Archetypes[0].CollisionPotential[0].SourceIDs = nil
			},
			code:     codeUnsupportedCollision,
			severity: SeverityWarn,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := defaultCanon(t)
			tc.mutate(c)
			report, err := Run(c, defaultSchema(t))
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			issue, ok := findIssue(report.Issues, tc.code, tc.subject)
			if !ok {
				t.Fatalf("expected %s issue for %q, got %+v", tc.code, tc.subject, report.Issues)
			}
			if issue.Severity != tc.severity {
				t.Fatalf("expected severity %s, got %s", tc.severity, issue.Severity)
			}
		})
	}
}

func TestRun_NilSchemaSkipsSourceTypes(t *testing.T) {
	c := defaultCanon(t)
	c.Sources[0].SourceType = "tweet"
	report, err := Run(c, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if hasCode(report.Issues, codeUnknownSourceType) {
		t.Fatalf("expected source types unchecked without schema")
	}
}

func TestRun_NilCanon(t *testing.T) {
	if _, err := Run(nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestReport_Count(t *testing.T) {
	report := &Report{Issues: []Issue{
		{Severity: SeverityError},
		{Severity: SeverityWarn},
		{Severity: SeverityWarn},
	}}
	if report.Count(SeverityWarn) != 2 || report.Count(SeverityError) != 1 || !report.HasErrors() {
		t.Fatalf("unexpected counts")
	}
	if (&Report{}).HasErrors() {
		t.Fatalf("expected empty report to have no errors")
	}
}

func findIssue(issues []Issue, code, subject string) (Issue, bool) {
	for _, issue := range issues {
		if issue.Code != code {
			continue
		}
		if subject == "" || strings.EqualFold(issue.Subject, subject) {
			return issue, true
		}
	}
	return Issue{}, false
}

func hasIssue(issues []Issue, code, subject string) bool {
	_, ok := findIssue(issues, code, subject)
	return ok
}

func hasCode(issues []Issue, code string) bool {
	return hasIssue(issues, code, "")
}
