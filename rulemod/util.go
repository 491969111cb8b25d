package rulemod

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Deterministic digest over rule identities and versions, so identical
// active rule sets always produce the same snapshot version string.
func snapshotDigest(rules []*ModerationRule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = fmt.Sprintf("%s@%d", r.ID, r.Version)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:8])
}
