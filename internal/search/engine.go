package search

import (
	"log"
	"os"

	"github.com/dmvu/recall/internal/artifact"
	"github.com/dmvu/recall/internal/storage"
)

// Engine answers "what did I learn about X before?" queries.
type Engine struct {
	store        storage.Store
	indexPath    string
	artifactsDir string
}

// NewEngine creates a retrieval engine over the given store, flat index
// file, and artifacts directory.
func NewEngine(store storage.Store, indexPath, artifactsDir string) *Engine {
	return &Engine{
		store:        store,
		indexPath:    indexPath,
		artifactsDir: artifactsDir,
	}
}

// Search runs the strict fallback chain: FTS5, then the flat index,
// then the artifact scan. The first tier producing at least one result
// wins; a later tier is never consulted once an earlier one has
// answered, even if it might rank differently.
//
// An empty Results value is the normal "nothing relevant" outcome, not
// an error. Errors are reserved for failures past the last tier.
func (e *Engine) Search(query string, opts Options) (Results, error) {
	queryTerms := terms(query)
	if len(queryTerms) == 0 {
		return Results{Tier: TierNone}, nil
	}

	if items := e.searchFullText(query, opts); len(items) > 0 {
		return Results{Tier: TierFullText, Items: items}, nil
	}

	items, indexMissing := e.searchFlatIndex(queryTerms, opts)
	if len(items) > 0 {
		return Results{Tier: TierFlatIndex, Items: items}, nil
	}
	if !indexMissing {
		// The flat index existed and answered with zero rows; that is a
		// definitive empty result, matching the index's contract.
		return Results{Tier: TierNone}, nil
	}

	records, err := artifact.ReadAll(e.artifactsDir)
	if err != nil {
		return Results{Tier: TierNone}, err
	}
	if items := searchArtifacts(records, queryTerms, opts); len(items) > 0 {
		return Results{Tier: TierScan, Items: items}, nil
	}

	return Results{Tier: TierNone}, nil
}

// searchFullText is tier 1. Any failure (missing index, malformed
// query) means "tier unavailable" and falls through silently.
func (e *Engine) searchFullText(query string, opts Options) []Result {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	// Over-fetch so a project post-filter can still fill the limit.
	fetch := limit
	if opts.Project != "" {
		fetch = limit * 4
	}

	hits, err := e.store.SearchEvents(query, fetch)
	if err != nil {
		log.Printf("Warning: full-text tier unavailable: %v", err)
		return nil
	}

	var items []Result
	for _, hit := range hits {
		if opts.Project != "" && hit.Event.Project != opts.Project {
			continue
		}

		items = append(items, Result{
			EventID:      hit.Event.ID,
			Kind:         hit.Event.Kind,
			Project:      hit.Event.Project,
			Timestamp:    hit.Event.Timestamp,
			Pattern:      hit.Event.MatchedPattern,
			Summary:      summaryFor(hit.Event),
			ArtifactPath: hit.Event.ArtifactPath,
			Score:        hit.Rank,
		})
		if len(items) == limit {
			break
		}
	}
	return items
}

// searchFlatIndex is tier 2. The second return value reports whether
// the index file was missing (fall through to tier 3) as opposed to
// present but matching nothing.
func (e *Engine) searchFlatIndex(queryTerms []string, opts Options) ([]Result, bool) {
	entries, err := LoadFlatIndex(e.indexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: flat index unreadable: %v", err)
		}
		return nil, true
	}

	return searchFlat(entries, queryTerms, opts), false
}
