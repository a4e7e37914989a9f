// Package keys derives blob storage keys for canonical records.
//
// Keys have the form push/{device}/{epochMillis}.json, so keys within one
// device's namespace sort lexicographically in chronological order. The
// device segment is percent-encoded: a device identifier containing a path
// separator must not be able to escape its namespace. Two pushes for the
// same device within the same millisecond collide (last write wins) — an
// accepted risk, since meters report at second-or-slower cadence.
package keys

import (
	"fmt"
	"net/url"
	"time"
)

// Prefix is the namespace under which all canonical records are stored.
const Prefix = "push/"

// MaxListKeys caps how many keys the listing endpoint enumerates.
const MaxListKeys = 100

// Derive computes the storage key for a record of the given device at the
// given arrival instant. Always succeeds.
func Derive(deviceID string, at time.Time) string {
	return fmt.Sprintf("%s%s/%d.json", Prefix, url.PathEscape(deviceID), at.UnixMilli())
}
