package driver

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"

	"github.com/minio/highwayhash"

	"lift/internal/version"
)

// Digest is a 256-bit hash, the size of source.File.Hash.
type Digest [32]byte

// cacheKeySalt keys the HighwayHash used for cache keys. Changing it
// invalidates every cache entry.
var cacheKeySalt = []byte("lift/lower/cache-key/v1.........")

// combineDigest returns H(content || dep1 || dep2 ...). deps must be in a
// deterministic order.
func combineDigest(content Digest, deps ...Digest) Digest {
	h, err := highwayhash.New(cacheKeySalt)
	if err != nil {
		panic(fmt.Errorf("cache key salt: %w", err))
	}
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// optionsDigest fingerprints everything besides the input that changes
// the rendered output, including the tool version.
func optionsDigest(opts *Options) Digest {
	only := slices.Clone(opts.Only)
	slices.Sort(only)
	s := fmt.Sprintf("v=%s;schema=%d;cache=%s;scopes=%d;singleton=%t;emit=%t;assign=%t;max=%d;only=%s",
		version.Version, diskCacheSchemaVersion, opts.Cache, opts.ScopeKinds,
		opts.SingletonStatics, opts.Emitting, opts.AssignLocals, opts.maxDiagnostics(), strings.Join(only, ","))
	return sha256.Sum256([]byte(s))
}

// CacheKey is the disk-cache key of lowering content under opts.
func CacheKey(content Digest, opts *Options) Digest {
	return combineDigest(content, optionsDigest(opts))
}
