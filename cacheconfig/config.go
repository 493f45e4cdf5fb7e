// Package cacheconfig loads cache topology (policy, bounds, TTL) from
// file/env/flag sources via configloader, the same koanf-backed generic
// loader the rest of the module's config-bearing components use.
package cacheconfig

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/pflag"

	"github.com/GabrielNunesIT/cachekit/cache"
	"github.com/GabrielNunesIT/cachekit/configloader"
)

// CacheSpec is the declarative shape of a Cache's construction parameters,
// loadable from YAML/JSON/env/flags via configloader.ConfigLoader[CacheSpec].
type CacheSpec struct {
	Name         string        `koanf:"name"`
	Policy       string        `koanf:"policy"`
	MaxSize      int           `koanf:"maxsize"`
	TTL          time.Duration `koanf:"ttl"`
	CapacityHint int           `koanf:"capacity_hint"`
}

// DefaultSpec is a base CacheSpec (unbounded LRU) that callers can pass to
// WithDefaults before layering file/env/flag overrides on top. NewLoader
// does not apply it on its own.
var DefaultSpec = CacheSpec{
	Policy:  "lru",
	MaxSize: 0,
}

// Loader wraps a configloader.ConfigLoader[CacheSpec] so cache topology can
// be assembled from the same sources (file, env, flags) the rest of the
// module configures from.
type Loader struct {
	inner *configloader.ConfigLoader[CacheSpec]
}

// Option configures a Loader's sources, in the order they should layer
// (later sources override earlier ones), exactly as configloader.Option
// does.
type Option = configloader.Option[CacheSpec]

// WithDefaults seeds the loader with defaults before any file/env/flag
// source is applied.
func WithDefaults(defaults CacheSpec) Option {
	return configloader.WithDefaults(defaults)
}

// WithFile layers a YAML or JSON file (detected by extension) on top of
// whatever was loaded so far.
func WithFile(path string) Option {
	return configloader.WithFile[CacheSpec](path)
}

// WithEnv layers environment variables under prefix, translated to dotted
// keys (APP_MAXSIZE -> maxsize).
func WithEnv(prefix string) Option {
	return configloader.WithEnv[CacheSpec](prefix)
}

// WithFlags layers parsed command-line flags.
func WithFlags(flags *pflag.FlagSet) Option {
	return configloader.WithFlags[CacheSpec](flags)
}

// NewLoader constructs a Loader, applying opts in order.
func NewLoader(opts ...Option) *Loader {
	return &Loader{inner: configloader.NewConfigLoader(opts...)}
}

// Load resolves the configured sources into a CacheSpec.
func (l *Loader) Load() (CacheSpec, error) {
	return l.inner.Load()
}

// policyByName resolves the spec's policy tag to a cache.Policy, case- and
// punctuation-insensitively (e.g. "vttl", "VTTL" both resolve).
func policyByName(name string) (cache.Policy, error) {
	norm := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}

		return -1
	}, name)

	switch norm {
	case "", "plain":
		return cache.PolicyPlain, nil
	case "fifo":
		return cache.PolicyFIFO, nil
	case "rr":
		return cache.PolicyRR, nil
	case "lru":
		return cache.PolicyLRU, nil
	case "lfu":
		return cache.PolicyLFU, nil
	case "ttl":
		return cache.PolicyTTL, nil
	case "vttl":
		return cache.PolicyVTTL, nil
	default:
		return 0, fmt.Errorf("cacheconfig: unknown policy %q", name)
	}
}

// New constructs a *cache.Cache[K, V] from spec. TTL caches require
// spec.TTL > 0 (cache.ErrInvalidTTL otherwise); VTTL caches are constructed
// with no initial load, since CacheSpec carries no per-entry expiries.
func New[K comparable, V any](spec CacheSpec, opts ...cache.Option[K, V]) (*cache.Cache[K, V], error) {
	policy, err := policyByName(spec.Policy)
	if err != nil {
		return nil, err
	}

	if spec.CapacityHint > 0 {
		opts = append(opts, cache.WithCapacityHint[K, V](spec.CapacityHint))
	}

	switch policy {
	case cache.PolicyTTL:
		return cache.NewTTL[K, V](spec.MaxSize, spec.TTL, nil, opts...)
	case cache.PolicyVTTL:
		return cache.NewVTTL[K, V](spec.MaxSize, nil, opts...)
	case cache.PolicyPlain, cache.PolicyFIFO, cache.PolicyRR, cache.PolicyLRU, cache.PolicyLFU:
		return cache.New[K, V](policy, spec.MaxSize, nil, opts...), nil
	default:
		return nil, fmt.Errorf("cacheconfig: unsupported policy %q", spec.Policy)
	}
}
