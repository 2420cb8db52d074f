package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

// Seeds identifies the deterministic random stream a table deals from.
type Seeds struct {
	Server string `json:"server"` // ASCII; do NOT hex-decode
	Client string `json:"client"`
}

// ServerHash returns the SHA-256 commitment for the server seed, suitable for
// publishing before any hand is dealt.
func (s Seeds) ServerHash() string {
	if s.Server == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.Server))
	return hex.EncodeToString(sum[:])
}
