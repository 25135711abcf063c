package cache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/OCAP2/terrain/internal/terrain"
)

// Loader builds the analyzer for a dataset name.
type Loader func(name string) (*terrain.Analyzer, error)

type entry struct {
	ready    chan struct{}
	analyzer *terrain.Analyzer
	err      error
}

// AnalyzerCache keeps one Analyzer per dataset. Building an analyzer reads
// the raster and labels the graph, so it happens at most once per name;
// concurrent callers for the same name wait for the first load. Failed loads
// are not cached.
type AnalyzerCache struct {
	m       sync.Mutex
	load    Loader
	entries map[string]*entry
	loads   SafeCounter
}

func NewAnalyzerCache(load Loader) *AnalyzerCache {
	return &AnalyzerCache{
		load:    load,
		entries: make(map[string]*entry),
	}
}

// Get returns the cached analyzer for name, loading it on first use. A
// panicking loader is reported as an error to every waiting caller.
func (c *AnalyzerCache) Get(name string) (*terrain.Analyzer, error) {
	c.m.Lock()
	if e, ok := c.entries[name]; ok {
		c.m.Unlock()
		<-e.ready
		return e.analyzer, e.err
	}
	e := &entry{ready: make(chan struct{})}
	c.entries[name] = e
	c.m.Unlock()

	c.loads.Inc()
	c.fill(name, e)
	return e.analyzer, e.err
}

func (c *AnalyzerCache) fill(name string, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			e.analyzer = nil
			e.err = fmt.Errorf("loading dataset %q panicked: %v", name, r)
		}
		if e.err != nil {
			c.m.Lock()
			if c.entries[name] == e {
				delete(c.entries, name)
			}
			c.m.Unlock()
		}
		close(e.ready)
	}()
	e.analyzer, e.err = c.load(name)
}

// Names returns the names of loaded analyzers in ascending order.
func (c *AnalyzerCache) Names() []string {
	c.m.Lock()
	defer c.m.Unlock()
	names := make([]string, 0, len(c.entries))
	for name, e := range c.entries {
		select {
		case <-e.ready:
			names = append(names, name)
		default:
		}
	}
	sort.Strings(names)
	return names
}

// Evict drops the analyzer for name so the next Get reloads it.
func (c *AnalyzerCache) Evict(name string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.entries, name)
}

// Reset drops every analyzer and zeroes the load counter.
func (c *AnalyzerCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries = make(map[string]*entry)
	c.loads.Set(0)
}

// Loads reports how many times the loader has run.
func (c *AnalyzerCache) Loads() int {
	return c.loads.Value()
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
