package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key builds a cache key scoped to one Home Assistant endpoint and token so
// two users never share cached results
func Key(kind, baseURL, token string, parts ...string) string {
	sum := sha256.Sum256([]byte(baseURL + "\x00" + token))
	key := kind + ":" + hex.EncodeToString(sum[:8])
	if len(parts) > 0 {
		key += ":" + strings.Join(parts, ":")
	}
	return key
}
