package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns a prefixed opaque identifier, e.g. "auction-5f0c...".
// The prefix keeps ids self-describing in logs and event payloads.
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
