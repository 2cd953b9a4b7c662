package aggregate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmvu/recall/internal/storage"
)

func outcome(id string, kind storage.Kind, ts time.Time) storage.TemplateOutcome {
	return storage.TemplateOutcome{TemplateID: id, Kind: kind, Timestamp: ts}
}

func TestRollupTemplates(t *testing.T) {
	now := time.Now().UTC()
	outcomes := []storage.TemplateOutcome{
		outcome("go-service", storage.KindWin, now),
		outcome("go-service", storage.KindWin, now),
		outcome("go-service", storage.KindLoss, now),
		outcome("cli-starter", storage.KindWin, now),
	}

	stats := RollupTemplates(outcomes, DefaultConfidencePolicy)

	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}

	// Sorted by template id: cli-starter first.
	if stats[0].TemplateID != "cli-starter" || stats[0].UsageCount != 1 {
		t.Errorf("unexpected first stat: %+v", stats[0])
	}
	if stats[1].WinCount != 2 || stats[1].LossCount != 1 {
		t.Errorf("expected 2/1 for go-service, got %+v", stats[1])
	}
	if stats[1].WinRate < 0 || stats[1].WinRate > 1 {
		t.Errorf("win rate out of bounds: %f", stats[1].WinRate)
	}
}

func TestGenerateProposals_Qualifying(t *testing.T) {
	now := time.Now().UTC()

	// 4 projects, 3 of which added the same directory (75% adoption).
	mods := []Modification{
		{TemplateID: "go-service", ProjectPath: "/p1", Type: "directory_added", Path: "internal/metrics"},
		{TemplateID: "go-service", ProjectPath: "/p2", Type: "directory_added", Path: "internal/metrics"},
		{TemplateID: "go-service", ProjectPath: "/p3", Type: "directory_added", Path: "internal/metrics"},
		{TemplateID: "go-service", ProjectPath: "/p4", Type: "file_added", Path: "Makefile"},
	}

	stats := []storage.TemplateStat{{
		TemplateID: "go-service",
		WinRate:    0.8,
		Confidence: 0.75,
	}}

	proposals := GenerateProposals(mods, stats, now)

	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	p := proposals[0]
	if len(p.Changes) != 1 {
		t.Fatalf("expected 1 qualifying change, got %+v", p.Changes)
	}
	if p.Changes[0].Path != "internal/metrics" || p.Changes[0].Type != "directory" {
		t.Errorf("unexpected change: %+v", p.Changes[0])
	}
	if p.Changes[0].AdoptionRate != 0.75 {
		t.Errorf("expected adoption rate 0.75, got %f", p.Changes[0].AdoptionRate)
	}
}

func TestGenerateProposals_LowWinRateSkipped(t *testing.T) {
	mods := []Modification{
		{TemplateID: "flaky", ProjectPath: "/p1", Type: "file_added", Path: "a.go"},
	}
	stats := []storage.TemplateStat{{TemplateID: "flaky", WinRate: 0.5, Confidence: 0.9}}

	proposals := GenerateProposals(mods, stats, time.Now())

	if len(proposals) != 0 {
		t.Errorf("expected no proposals below the win-rate threshold, got %d", len(proposals))
	}
}

func TestGenerateProposals_LowConfidenceSkipped(t *testing.T) {
	mods := []Modification{
		{TemplateID: "young", ProjectPath: "/p1", Type: "file_added", Path: "a.go"},
	}
	stats := []storage.TemplateStat{{TemplateID: "young", WinRate: 0.9, Confidence: 0.5}}

	proposals := GenerateProposals(mods, stats, time.Now())

	if len(proposals) != 0 {
		t.Errorf("expected no proposals below the confidence threshold, got %d", len(proposals))
	}
}

func TestGenerateProposals_FileVsDirectory(t *testing.T) {
	mods := []Modification{
		{TemplateID: "t", ProjectPath: "/p1", Type: "file_added", Path: "docs/README.md"},
	}
	stats := []storage.TemplateStat{{TemplateID: "t", WinRate: 1.0, Confidence: 1.0}}

	proposals := GenerateProposals(mods, stats, time.Now())

	if len(proposals) != 1 || proposals[0].Changes[0].Type != "file" {
		t.Fatalf("expected a file-typed change, got %+v", proposals)
	}
}

func TestLoadModifications_MissingFile(t *testing.T) {
	mods, err := LoadModifications(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(mods) != 0 {
		t.Errorf("expected no modifications, got %d", len(mods))
	}
}

func TestLoadModifications_SkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mods.jsonl")
	content := `{"template_id":"t","project_path":"/p","type":"file_added","path":"a.go"}
garbage line
{"template_id":"t","project_path":"/q","type":"directory_added","path":"pkg"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write modifications: %v", err)
	}

	mods, err := LoadModifications(path)
	if err != nil {
		t.Fatalf("LoadModifications failed: %v", err)
	}
	if len(mods) != 2 {
		t.Errorf("expected 2 modifications, got %d", len(mods))
	}
}

func TestWriteProposals_EmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proposals.json")

	if err := WriteProposals(nil, path); err != nil {
		t.Fatalf("WriteProposals failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read proposals: %v", err)
	}

	var proposals []Proposal
	if err := json.Unmarshal(data, &proposals); err != nil {
		t.Fatalf("proposals file is not valid JSON: %v", err)
	}
	if len(proposals) != 0 {
		t.Errorf("expected empty array, got %d", len(proposals))
	}
}
