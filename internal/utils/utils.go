package utils

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Checksum returns a short content hash used as the cache key for
// compiled handler modules.
func Checksum(b []byte) string {
	return strconv.FormatUint(xxhash.Sum64(b), 32)
}
