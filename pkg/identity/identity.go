// Package identity derives stable content-addressable identifiers for
// listing records. The same logical entry must map to the same identifier
// on every run, so membership tests against the master store replace
// full-content diffing.
package identity

import (
	"crypto/md5"
	"encoding/hex"
)

// Identify returns the hex fingerprint of key. The result is pure and
// stable across process restarts; collision avoidance beyond the hash's
// own distribution is deliberately not attempted at this record volume.
// An empty key returns "", the no-identifier sentinel: callers exclude
// such records from store comparisons and flag them for manual review.
func Identify(key string) string {
	if key == "" {
		return ""
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// RecordKey builds the canonical hash input for a record: the detail URL
// when present, otherwise a composite of title and listed date.
func RecordKey(detailURL, title, date string) string {
	if detailURL != "" {
		return detailURL
	}
	if title == "" && date == "" {
		return ""
	}
	return title + "_" + date
}
