// Package regnumber generates human-enterable registration numbers.
package regnumber

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const suffixAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate builds a registration number of the form EVT<id>-<ts>-<rand>,
// e.g. "EVT42-LX3K9A-7QWD". The event prefix and base36 timestamp make the
// number easy to triage by hand; the random suffix keeps collisions within
// the same millisecond unlikely. Uniqueness is still enforced by the store,
// so callers retry on a duplicate.
func Generate(eventID uint, now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	return fmt.Sprintf("EVT%d-%s-%s", eventID, ts, randomSuffix(4))
}

func randomSuffix(n int) string {
	max := big.NewInt(int64(len(suffixAlphabet)))

	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; fall back to a timestamp-derived character so
			// generation never blocks registration.
			b.WriteByte(suffixAlphabet[time.Now().UnixNano()%int64(len(suffixAlphabet))])
			continue
		}
		b.WriteByte(suffixAlphabet[idx.Int64()])
	}

	return b.String()
}
