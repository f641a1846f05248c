package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// RedisNamespace prefixes every key netdraw writes to a shared Redis cache.
const RedisNamespace = "netdraw:"

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ImportKey returns "import:<hash>".
func (DefaultKeyer) ImportKey(contentHash string) string {
	return "import:" + contentHash
}

// ArtifactKey returns "artifact:<digest>", where the digest covers the
// document hash and every option that changes the rendered bytes.
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	h := sha256.New()
	for _, part := range []string{
		docHash,
		opts.Format,
		opts.Page,
		strconv.FormatBool(opts.Pinned),
		strconv.FormatBool(opts.Detailed),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "artifact:" + hex.EncodeToString(h.Sum(nil))
}

// ScopedKeyer prefixes the keys of another Keyer, so that netdraw can share
// a cache with other programs.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return ScopedKeyer{inner: inner, prefix: prefix}
}

// ImportKey implements Keyer.
func (k ScopedKeyer) ImportKey(contentHash string) string {
	return k.prefix + k.inner.ImportKey(contentHash)
}

// ArtifactKey implements Keyer.
func (k ScopedKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(docHash, opts)
}
