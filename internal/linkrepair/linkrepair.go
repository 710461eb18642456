// Package linkrepair detects degenerate link assignments in structured
// updates and reassigns them from the page's link inventory by fuzzy
// topic matching.
package linkrepair

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"horizonscan/internal/domain"
)

const (
	// similarityCutoff is the minimum topic/link similarity for a
	// candidate to count as a match.
	similarityCutoff = 0.3

	// lowVarietyMax triggers a repair pass when the records hold this
	// many distinct links or fewer.
	lowVarietyMax = 3
)

// genericFragments appear in navigation and filter URLs, never in
// links to a concrete update.
var genericFragments = []string{"#content__main", "topics=", "filters="}

// updatePattern matches URLs that point at an individual update page:
// dated paths and known per-release slugs.
var updatePattern = regexp.MustCompile(`/\d{4}/|cfpb-|finra-|whitehouse`)

// navigationPattern matches URLs that are fragments or list filters.
var navigationPattern = regexp.MustCompile(`#|topics=|filters=|content__main`)

// Suspicious reports whether a link looks like generic navigation
// rather than a concrete update page.
func Suspicious(link string) bool {
	link = strings.ToLower(strings.TrimSpace(link))
	if link == "" || strings.HasSuffix(link, "/") {
		return true
	}
	for _, fragment := range genericFragments {
		if strings.Contains(link, fragment) {
			return true
		}
	}
	return false
}

// Engine repairs update links in place using an inventory of links
// actually present on the page.
type Engine struct {
	metric *metrics.RatcliffObershelp
	logger *slog.Logger
}

// New returns an Engine. A nil logger silences diagnostics.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{metric: metrics.NewRatcliffObershelp(), logger: logger}
}

// Repair runs every pass in order: low-variety, repetition, then a
// final top-up for records still carrying an empty link. Records are
// only ever reassigned to links from the inventory; a record with no
// acceptable candidate keeps its current link.
func (e *Engine) Repair(updates []domain.Update, inventory []string) {
	e.RepairLowVariety(updates, inventory)
	e.RepairRepetition(updates, inventory)
	e.FillEmpty(updates, inventory)
}

// RepairLowVariety reassigns suspicious links when the set of assigned
// links is degenerate: three or fewer distinct values, or one value
// covering more than half the records.
func (e *Engine) RepairLowVariety(updates []domain.Update, inventory []string) {
	if len(updates) == 0 || len(inventory) == 0 {
		return
	}

	distinct, _, topCount := linkCounts(updates)
	if distinct > lowVarietyMax && topCount*2 <= len(updates) {
		e.logger.Debug("links look unique, skipping variety repair", "distinct", distinct)
		return
	}

	repaired := 0
	for i := range updates {
		if !Suspicious(updates[i].Link) {
			continue
		}
		if match, ok := e.ClosestLink(updates[i].Topic, inventory); ok {
			updates[i].Link = match
			repaired++
		}
	}
	if repaired > 0 {
		e.logger.Info("repaired suspicious links", "count", repaired)
	}
}

// RepairRepetition handles the case where one link is pasted onto a
// large share of records. Candidates are narrowed to update-like URLs
// so topics cannot be matched back onto navigation pages.
func (e *Engine) RepairRepetition(updates []domain.Update, inventory []string) {
	if len(updates) == 0 || len(inventory) == 0 {
		return
	}

	// The pass engages when the dominant link covers a fifth or more
	// of the records.
	_, topLink, topCount := linkCounts(updates)
	if topCount*5 < len(updates) {
		e.logger.Debug("no excessive link repetition", "top_count", topCount, "records", len(updates))
		return
	}

	candidates := FilterUpdateLike(inventory)
	if len(candidates) == 0 {
		e.logger.Debug("no update-like candidates in inventory")
		return
	}

	repaired := 0
	for i := range updates {
		if updates[i].Link != topLink && !Suspicious(updates[i].Link) {
			continue
		}
		if match, ok := e.ClosestLink(updates[i].Topic, candidates); ok && match != updates[i].Link {
			updates[i].Link = match
			repaired++
		}
	}
	if repaired > 0 {
		e.logger.Info("repaired repeated links", "count", repaired, "dominant", topLink)
	}
}

// FillEmpty assigns a best-match link to records whose link is still
// literally empty after the earlier passes.
func (e *Engine) FillEmpty(updates []domain.Update, inventory []string) {
	for i := range updates {
		if strings.TrimSpace(updates[i].Link) != "" {
			continue
		}
		if match, ok := e.ClosestLink(updates[i].Topic, inventory); ok {
			updates[i].Link = match
		}
	}
}

// ClosestLink returns the inventory link most similar to the topic, or
// false when nothing clears the similarity cutoff. Candidates are
// compared in sorted order so equal scores resolve deterministically.
func (e *Engine) ClosestLink(topic string, inventory []string) (string, bool) {
	if strings.TrimSpace(topic) == "" || len(inventory) == 0 {
		return "", false
	}

	candidates := append([]string(nil), inventory...)
	sort.Strings(candidates)

	topic = strings.ToLower(topic)
	best := ""
	bestScore := 0.0
	for _, candidate := range candidates {
		score := strutil.Similarity(topic, strings.ToLower(candidate), e.metric)
		if score >= similarityCutoff && score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, best != ""
}

// FilterUpdateLike keeps only links that plausibly address a concrete
// update page.
func FilterUpdateLike(links []string) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		if navigationPattern.MatchString(link) {
			continue
		}
		if updatePattern.MatchString(strings.ToLower(link)) {
			out = append(out, link)
		}
	}
	return out
}

// linkCounts tallies assigned links and reports the count of distinct
// values plus the dominant link. Ties pick the first link in record
// order.
func linkCounts(updates []domain.Update) (distinct int, topLink string, topCount int) {
	counts := make(map[string]int, len(updates))
	order := make([]string, 0, len(updates))
	for _, u := range updates {
		if counts[u.Link] == 0 {
			order = append(order, u.Link)
		}
		counts[u.Link]++
	}
	for _, link := range order {
		if counts[link] > topCount {
			topLink, topCount = link, counts[link]
		}
	}
	return len(counts), topLink, topCount
}
