package preview

import "sync"

// Guard is the per-session bookkeeping that keeps one resolution per URL.
// A URL enters the processing set when its resolution starts and stays there
// once resolved; the failed set holds URLs whose resolution failed this session.
type Guard struct {
	mu         sync.Mutex
	processing map[string]struct{}
	failed     map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{
		processing: make(map[string]struct{}),
		failed:     make(map[string]struct{}),
	}
}

// Begin claims a URL. It returns false when the URL is already claimed or failed.
func (g *Guard) Begin(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.failed[url]; ok {
		return false
	}
	if _, ok := g.processing[url]; ok {
		return false
	}
	g.processing[url] = struct{}{}
	return true
}

// Release drops the claim on a URL so it can be resolved again.
func (g *Guard) Release(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.processing, url)
}

// MarkFailed records a failed resolution. Only ClearFailed removes the mark.
func (g *Guard) MarkFailed(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed[url] = struct{}{}
}

// IsFailed reports whether the URL failed this session.
func (g *Guard) IsFailed(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.failed[url]
	return ok
}

// ClearFailed removes the failure mark, as a manual retry does.
func (g *Guard) ClearFailed(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failed, url)
}

// Pending returns, in order and without duplicates, the URLs that are neither
// claimed nor failed.
func (g *Guard) Pending(urls []string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, url := range urls {
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		if _, ok := g.processing[url]; ok {
			continue
		}
		if _, ok := g.failed[url]; ok {
			continue
		}
		out = append(out, url)
	}
	return out
}
