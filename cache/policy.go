package cache

// Policy selects the eviction/expiration discipline a Cache enforces.
type Policy int

const (
	// PolicyPlain disables eviction. Insert into a full Plain cache fails
	// with ErrCapacityExceeded instead of evicting.
	PolicyPlain Policy = iota
	// PolicyFIFO evicts the oldest inserted entry.
	PolicyFIFO
	// PolicyRR (random replacement) evicts a uniformly random live entry.
	PolicyRR
	// PolicyLRU evicts the least recently used entry.
	PolicyLRU
	// PolicyLFU evicts the least frequently used entry, ties broken by
	// insertion order.
	PolicyLFU
	// PolicyTTL evicts/expires by a single TTL fixed at construction; the
	// victim on capacity pressure is always the oldest insertion.
	PolicyTTL
	// PolicyVTTL expires per-entry TTLs; the victim on capacity pressure is
	// the entry with the nearest expiry.
	PolicyVTTL
)

// String renders the policy tag used in logs and the serialization header.
func (p Policy) String() string {
	switch p {
	case PolicyPlain:
		return "plain"
	case PolicyFIFO:
		return "fifo"
	case PolicyRR:
		return "rr"
	case PolicyLRU:
		return "lru"
	case PolicyLFU:
		return "lfu"
	case PolicyTTL:
		return "ttl"
	case PolicyVTTL:
		return "vttl"
	default:
		return "unknown"
	}
}
