package store

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// traceIDPrefix marks trace IDs so they are recognisable in logs and URLs.
const traceIDPrefix = "trc"

// newTraceID returns "trc_<base36 unix nanos>_<12 hex>". IDs only need to be
// unique per database; de-duplication is by fingerprint, so a failing random
// source degrades to the timestamp alone rather than erroring.
func newTraceID() string {
	id := traceIDPrefix + "_" + strconv.FormatInt(time.Now().UnixNano(), 36)

	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return id
	}
	return id + "_" + hex.EncodeToString(b[:])
}
