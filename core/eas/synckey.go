package eas

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// nextSyncKey computes the next server-issued SyncKey for a (device,
// collection) by continuing whichever shape the current key has: a
// grommunio-derived "{UUID}N" key keeps its prefix and bumps the counter,
// and a bare decimal counter is incremented. A fresh or reset state holds
// "0", so a new sync relationship issues "1", "2", ...
func nextSyncKey(current string) string {
	if prefix, n, ok := splitGrommunioKey(current); ok {
		return prefix + strconv.FormatInt(n+1, 10)
	}
	if n, err := strconv.ParseInt(current, 10, 64); err == nil {
		return strconv.FormatInt(n+1, 10)
	}
	return newSyncRelationship()
}

// newSyncRelationship mints a fresh "{UUID}1" key, starting a new sync
// relationship. Used only when the server's own current key is in neither
// recognized shape.
func newSyncRelationship() string {
	return "{" + uuid.NewString() + "}1"
}

// splitGrommunioKey parses "{UUID}N" into its UUID prefix (including the
// braces) and trailing counter.
func splitGrommunioKey(key string) (prefix string, counter int64, ok bool) {
	if len(key) < 3 || key[0] != '{' {
		return "", 0, false
	}
	end := strings.IndexByte(key, '}')
	if end < 0 || end == len(key)-1 {
		return "", 0, false
	}
	n, err := strconv.ParseInt(key[end+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return key[:end+1], n, true
}
