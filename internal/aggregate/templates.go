package aggregate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmvu/recall/internal/storage"
)

// RecomputeTemplates rebuilds the template_stats table from recorded
// template outcomes. Same rollup shape as patterns, keyed by template id.
func RecomputeTemplates(store storage.Store, policy ConfidencePolicy) error {
	outcomes, err := store.ListTemplateOutcomes()
	if err != nil {
		return fmt.Errorf("failed to read template outcomes: %w", err)
	}

	stats := RollupTemplates(outcomes, policy)

	if err := store.ReplaceTemplateStats(stats); err != nil {
		return fmt.Errorf("failed to replace template stats: %w", err)
	}
	return nil
}

// RollupTemplates groups outcomes by template id.
func RollupTemplates(outcomes []storage.TemplateOutcome, policy ConfidencePolicy) []storage.TemplateStat {
	groups := make(map[string]*storage.TemplateStat)

	for _, outcome := range outcomes {
		if outcome.TemplateID == "" || !outcome.Kind.Valid() {
			continue
		}

		st, ok := groups[outcome.TemplateID]
		if !ok {
			st = &storage.TemplateStat{TemplateID: outcome.TemplateID}
			groups[outcome.TemplateID] = st
		}

		st.UsageCount++
		if outcome.Kind == storage.KindWin {
			st.WinCount++
		} else {
			st.LossCount++
		}
		if outcome.Timestamp.After(st.LastSeen) {
			st.LastSeen = outcome.Timestamp
		}
	}

	stats := make([]storage.TemplateStat, 0, len(groups))
	for _, st := range groups {
		total := st.WinCount + st.LossCount
		st.WinRate = float64(st.WinCount) / float64(total)
		st.Confidence = policy.Score(total)
		stats = append(stats, *st)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TemplateID < stats[j].TemplateID
	})

	return stats
}

// Evolution proposal thresholds. A template only qualifies when its
// outcomes and structural modification history all clear the bar.
const (
	adoptionThreshold  = 0.70
	proposalWinRate    = 0.75
	proposalConfidence = 0.70
)

// Modification is one recorded structural change a project made on top
// of a scaffolded template, appended by the scaffolding tool as a JSONL
// line.
type Modification struct {
	TemplateID  string `json:"template_id"`
	ProjectPath string `json:"project_path"`
	Type        string `json:"type"` // "file_added" or "directory_added"
	Path        string `json:"path"`
}

// ProposedChange is one template addition that enough projects adopted.
type ProposedChange struct {
	Type         string  `json:"type"` // "file" or "directory"
	Path         string  `json:"path"`
	AdoptionRate float64 `json:"adoption_rate"`
	Projects     int     `json:"projects_count"`
}

// Proposal suggests evolving a template to absorb widely-adopted changes.
type Proposal struct {
	TemplateID string           `json:"template_id"`
	Changes    []ProposedChange `json:"changes"`
	WinRate    float64          `json:"win_rate"`
	Confidence float64          `json:"confidence"`
	Projects   int              `json:"total_projects_analyzed"`
	CreatedAt  time.Time        `json:"created_at"`
}

// LoadModifications reads the modifications JSONL file. Missing file
// means no modifications; malformed lines are skipped.
func LoadModifications(path string) ([]Modification, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Modification{}, nil
		}
		return nil, fmt.Errorf("failed to open modifications log: %w", err)
	}
	defer f.Close()

	var mods []Modification
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var mod Modification
		if err := json.Unmarshal([]byte(line), &mod); err != nil {
			log.Printf("Warning: skipping malformed modification line: %v", err)
			continue
		}
		mods = append(mods, mod)
	}

	return mods, scanner.Err()
}

// GenerateProposals cross-references modification adoption with template
// rollup quality and emits a proposal per qualifying template.
func GenerateProposals(mods []Modification, stats []storage.TemplateStat, now time.Time) []Proposal {
	statByID := make(map[string]storage.TemplateStat, len(stats))
	for _, st := range stats {
		statByID[st.TemplateID] = st
	}

	type templateMods struct {
		projects  map[string]bool
		additions map[string]int
	}

	byTemplate := make(map[string]*templateMods)
	for _, mod := range mods {
		if mod.TemplateID == "" || mod.ProjectPath == "" {
			continue
		}

		tm, ok := byTemplate[mod.TemplateID]
		if !ok {
			tm = &templateMods{
				projects:  make(map[string]bool),
				additions: make(map[string]int),
			}
			byTemplate[mod.TemplateID] = tm
		}

		tm.projects[mod.ProjectPath] = true
		if mod.Type == "file_added" || mod.Type == "directory_added" {
			tm.additions[mod.Path]++
		}
	}

	var proposals []Proposal
	for templateID, tm := range byTemplate {
		st, ok := statByID[templateID]
		if !ok || st.WinRate < proposalWinRate || st.Confidence < proposalConfidence {
			continue
		}

		totalProjects := len(tm.projects)
		if totalProjects == 0 {
			continue
		}

		var changes []ProposedChange
		for path, count := range tm.additions {
			rate := float64(count) / float64(totalProjects)
			if rate < adoptionThreshold {
				continue
			}

			changeType := "directory"
			if filepath.Ext(path) != "" {
				changeType = "file"
			}

			changes = append(changes, ProposedChange{
				Type:         changeType,
				Path:         path,
				AdoptionRate: rate,
				Projects:     count,
			})
		}
		if len(changes) == 0 {
			continue
		}

		sort.Slice(changes, func(i, j int) bool {
			return changes[i].Path < changes[j].Path
		})

		proposals = append(proposals, Proposal{
			TemplateID: templateID,
			Changes:    changes,
			WinRate:    st.WinRate,
			Confidence: st.Confidence,
			Projects:   totalProjects,
			CreatedAt:  now.UTC(),
		})
	}

	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].TemplateID < proposals[j].TemplateID
	})

	return proposals
}

// WriteProposals saves proposals as indented JSON, atomically.
// An empty proposal set still writes an empty array so consumers can
// distinguish "analyzed, nothing qualified" from "never ran".
func WriteProposals(proposals []Proposal, path string) error {
	if proposals == nil {
		proposals = []Proposal{}
	}

	data, err := json.MarshalIndent(proposals, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal proposals: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create proposals directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write proposals: %w", err)
	}
	return os.Rename(tmpPath, path)
}
