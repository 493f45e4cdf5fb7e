// Package cachehttp exposes one or more caches over HTTP: a JSON info
// endpoint per registered cache and a shared Prometheus exposition endpoint,
// built on the webserver package the way the rest of this module's
// HTTP-facing pieces are.
package cachehttp

import (
	"net/http"
	"sync"

	"github.com/GabrielNunesIT/cachekit/cache"
	"github.com/GabrielNunesIT/cachekit/metrics"
	"github.com/GabrielNunesIT/cachekit/webserver"
)

// Info is the stable JSON shape returned by a cache's info endpoint.
type Info struct {
	Name     string `json:"name"`
	Policy   string `json:"policy"`
	MaxSize  int    `json:"max_size"`
	Length   int    `json:"length"`
	Capacity int    `json:"capacity"`
	TTL      string `json:"ttl,omitempty"`
}

// Describable is the introspection surface a registered cache exposes.
// adapter[K, V] implements it for any *cache.Cache[K, V]; a caller with a
// different cache-like type (e.g. a memoize.Wrapped's backing cache) can
// implement it directly.
type Describable interface {
	Policy() string
	MaxSize() int
	Len() int
	Capacity() int
	TTL() string
}

type adapter[K comparable, V any] struct {
	c *cache.Cache[K, V]
}

// Adapt wraps c as a Describable, the Go-idiomatic way to register any
// *cache.Cache[K, V] with a Registry regardless of its key/value types.
func Adapt[K comparable, V any](c *cache.Cache[K, V]) Describable {
	return adapter[K, V]{c: c}
}

func (a adapter[K, V]) Policy() string   { return a.c.Policy().String() }
func (a adapter[K, V]) MaxSize() int     { return a.c.MaxSize() }
func (a adapter[K, V]) Len() int         { return a.c.Len() }
func (a adapter[K, V]) Capacity() int    { return a.c.Capacity() }

func (a adapter[K, V]) TTL() string {
	if a.c.Policy() != cache.PolicyTTL {
		return ""
	}

	return a.c.TTL().String()
}

// Registry serves read-only introspection and Prometheus metrics for a set
// of named caches, mirroring how metrics.Registry.Handler exposes its own
// collectors.
type Registry struct {
	mu     sync.RWMutex
	caches map[string]Describable
	reg    *metrics.Registry
}

// New constructs a Registry backed by reg for Prometheus exposition. reg may
// be nil, in which case /metrics is not mounted.
func New(reg *metrics.Registry) *Registry {
	return &Registry{caches: make(map[string]Describable), reg: reg}
}

// Register adds a named cache to the registry. Re-registering a name
// replaces the previous entry.
func (r *Registry) Register(name string, c Describable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.caches[name] = c
}

// Unregister removes a named cache.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.caches, name)
}

// Mount wires this registry's routes onto ws: GET /caches lists every
// registered cache's Info, GET /caches/:name returns one, and GET /metrics
// serves Prometheus exposition for the backing metrics.Registry, if any.
func (r *Registry) Mount(ws *webserver.WebServer) {
	ws.GET("/caches", r.listHandler)
	ws.GET("/caches/:name", r.infoHandler)

	if r.reg != nil {
		handler := r.reg.Handler()
		ws.GET("/metrics", func(c webserver.Context) error {
			handler.ServeHTTP(c.Response(), c.Request())

			return nil
		})
	}
}

func (r *Registry) listHandler(c webserver.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.caches))
	for name, d := range r.caches {
		infos = append(infos, toInfo(name, d))
	}

	return c.JSON(http.StatusOK, infos)
}

func (r *Registry) infoHandler(c webserver.Context) error {
	name := c.Param("name")

	r.mu.RLock()
	d, ok := r.caches[name]
	r.mu.RUnlock()

	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "cache not found"})
	}

	return c.JSON(http.StatusOK, toInfo(name, d))
}

func toInfo(name string, d Describable) Info {
	return Info{
		Name:     name,
		Policy:   d.Policy(),
		MaxSize:  d.MaxSize(),
		Length:   d.Len(),
		Capacity: d.Capacity(),
		TTL:      d.TTL(),
	}
}
