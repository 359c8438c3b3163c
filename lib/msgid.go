package lib

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/martinlindhe/base36"
)

// GenerateMessageID builds an RFC 2822-compliant Message-Id from the given
// RNG, following the informational draft "Recommendations for generating
// Message IDs". The id is returned without angle brackets. Drawing both
// halves from the caller's RNG keeps ids reproducible for a fixed seed,
// which a wall-clock based id would not be.
func GenerateMessageID(rng *rand.Rand, domain string) string {
	var (
		hi bytes.Buffer
		lo bytes.Buffer
	)
	binary.Write(&hi, binary.BigEndian, rng.Uint64())
	binary.Write(&lo, binary.BigEndian, rng.Uint64())
	if domain == "" {
		domain = "localhost"
	}
	return fmt.Sprintf("%s.%s@%s",
		base36.EncodeBytes(hi.Bytes()),
		base36.EncodeBytes(lo.Bytes()),
		domain)
}
