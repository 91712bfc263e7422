package store

import "time"

// SchemaVersion is the current provider record schema version, stamped
// into every record on write.
const SchemaVersion = 1

// ProviderRecord is one configured provider profile, persisted as
// providers/<alias>.json under the store root.
//
// APIKey holds either a tagged ciphertext (enc:<ivHex>:<cipherHex>) or,
// for records written before encryption existed, plaintext. Readers accept
// both; every write path produces the tagged form.
type ProviderRecord struct {
	Alias         string    `json:"alias"`
	BaseURL       string    `json:"baseURL"`
	APIKey        string    `json:"apiKey"`
	TimeoutMillis int       `json:"timeout,omitempty"`
	Created       time.Time `json:"created"`
	LastUsed      time.Time `json:"lastUsed,omitzero"`
	LastUpdated   time.Time `json:"lastUpdated"`
	Version       int       `json:"version"`
	ID            string    `json:"id"`
}

// Clone returns a copy of the record.
func (r *ProviderRecord) Clone() *ProviderRecord {
	c := *r
	return &c
}

// Patch describes a partial update to a provider record. Nil fields are
// left unchanged. APIKey, when set, is a new plaintext secret; the store
// encrypts it on write.
type Patch struct {
	BaseURL       *string
	APIKey        *string
	TimeoutMillis *int
}

// Descriptor is the store's root descriptor, persisted as config.json
// under the store root. DefaultProvider is nil when no default is set.
type Descriptor struct {
	DefaultProvider *string `json:"defaultProvider"`
	Version         int     `json:"version"`
}

// lockToken is the transient mutual-exclusion marker written to the lock
// path at the start of a mutating operation. Owner is the holder's pid.
type lockToken struct {
	Operation string    `json:"operation"`
	Owner     int       `json:"owner"`
	Created   time.Time `json:"created"`
}

// stale reports whether the token is older than ttl at the given time.
func (t *lockToken) stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.Created) > ttl
}
