package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"tycodec/internal/config"
	"tycodec/internal/source"
)

// Digest is a SHA-256 cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// combineDigest: H(content || dep1 || dep2 ...). deps уже в детерминированном порядке.
func combineDigest(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// configDigest covers every setting that changes the generated text.
func configDigest(cfg *config.Config) Digest {
	h := sha256.New()
	for _, part := range []string{
		cacheSchemaVersion,
		strconv.Itoa(int(cfg.Formats)),
		cfg.Layout.String(),
		strconv.FormatBool(cfg.Split),
		strconv.FormatBool(cfg.MetainfoUnbound),
		cfg.Package,
	} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// unitKey is H(config || file1 || file2 ...), files in unit order.
func unitKey(cfg *config.Config, fs *source.FileSet, files []source.FileID) Digest {
	deps := make([]Digest, 0, len(files))
	for _, id := range files {
		if f := fs.Get(id); f != nil {
			deps = append(deps, Digest(f.Hash))
		}
	}
	return combineDigest(configDigest(cfg), deps...)
}
