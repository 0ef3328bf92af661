package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ppiankov/eqverify/internal/model"
)

// Cache stores proof verdicts keyed by statement content
type Cache interface {
	Get(key string) (model.VerificationResult, bool)
	Set(key string, result model.VerificationResult)
	Len() int
	Clear()
}

// CacheKey generates a cache key from the parts that determine a verdict
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "eqverify:v1:" + hex.EncodeToString(hash[:])
}

// Cacheable reports whether a verdict may be reused. Timed-out and canceled
// verdicts depend on the run, not on the statement.
func Cacheable(r model.VerificationResult) bool {
	return !r.TimedOut && !r.Canceled
}
