package crawler

import "sync"

// Budget is the run-wide crawl budget shared by every worker. All reads that
// decide how much work to admit happen under the same lock as the writes they
// lead to, so concurrent listing pages never over-enqueue past the target.
type Budget struct {
	mu            sync.Mutex
	resultsWanted int
	maxPages      int
	saved         int
	visited       map[string]struct{}
	listings      map[string]struct{}
	dupStreak     map[string]int
}

// BudgetSnapshot is a point-in-time copy of the budget counters.
type BudgetSnapshot struct {
	ResultsWanted int
	MaxPages      int
	Saved         int
	Visited       int
}

// NewBudget returns a budget targeting resultsWanted records with at most
// maxPages listing pages per seed. Values below one are raised to one.
func NewBudget(resultsWanted, maxPages int) *Budget {
	return &Budget{
		resultsWanted: max(resultsWanted, 1),
		maxPages:      max(maxPages, 1),
		visited:       make(map[string]struct{}),
		listings:      make(map[string]struct{}),
		dupStreak:     make(map[string]int),
	}
}

// Remaining reports how many more records the run wants.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remainingLocked()
}

func (b *Budget) remainingLocked() int {
	return max(b.resultsWanted-b.saved, 0)
}

// Exhausted reports whether the target count has been reached.
func (b *Budget) Exhausted() bool {
	return b.Remaining() == 0
}

// Saved returns the number of records emitted so far.
func (b *Budget) Saved() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saved
}

// Visited reports whether url was already enqueued or processed.
func (b *Budget) Visited(url string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.visited[url]
	return ok
}

// MarkVisited records url and reports whether it was new.
func (b *Budget) MarkVisited(url string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.markLocked(url)
}

func (b *Budget) markLocked(url string) bool {
	if _, ok := b.visited[url]; ok {
		return false
	}
	b.visited[url] = struct{}{}
	return true
}

// ReserveDetails admits up to Remaining() unvisited urls for detail fetching
// and marks them visited before returning.
func (b *Budget) ReserveDetails(urls []string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.takeLocked(urls)
}

// ClaimLinks admits up to Remaining() unvisited urls as emitted link records,
// marking them visited and counting them as saved.
func (b *Budget) ClaimLinks(urls []string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	taken := b.takeLocked(urls)
	b.saved += len(taken)
	return taken
}

func (b *Budget) takeLocked(urls []string) []string {
	remaining := b.remainingLocked()
	if remaining == 0 {
		return nil
	}
	taken := make([]string, 0, min(remaining, len(urls)))
	for _, u := range urls {
		if len(taken) == remaining {
			break
		}
		if b.markLocked(u) {
			taken = append(taken, u)
		}
	}
	return taken
}

// Commit claims one slot for an assembled detail record. It returns false when
// the target was reached by another worker in the meantime.
func (b *Budget) Commit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saved >= b.resultsWanted {
		return false
	}
	b.saved++
	return true
}

// ShouldPaginate reports whether a listing page may enqueue its successor.
func (b *Budget) ShouldPaginate(pageNumber, rawLinks int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saved < b.resultsWanted && pageNumber < b.maxPages && rawLinks > 0
}

// MarkListing records a listing page URL (query included) and reports whether it was new.
func (b *Budget) MarkListing(url string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listings[url]; ok {
		return false
	}
	b.listings[url] = struct{}{}
	return true
}

// TrackDuplicates updates the run of consecutive listing pages for seed that
// produced no fresh links and returns its length.
func (b *Budget) TrackDuplicates(seed string, fresh int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fresh > 0 {
		delete(b.dupStreak, seed)
		return 0
	}
	b.dupStreak[seed]++
	return b.dupStreak[seed]
}

// Snapshot copies the current counters.
func (b *Budget) Snapshot() BudgetSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BudgetSnapshot{
		ResultsWanted: b.resultsWanted,
		MaxPages:      b.maxPages,
		Saved:         b.saved,
		Visited:       len(b.visited),
	}
}
