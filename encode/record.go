package encode

import (
	"encoding/hex"
	"time"

	"github.com/privacyproofs/zkip/internal/common"
)

// Record is the durable result shape handed to callers: the encoded proof,
// the revealed boolean, and bookkeeping. It deliberately has no field for
// the address or the resolved jurisdiction; nothing in this package ever
// sees them.
type Record struct {
	Proof      string `json:"proof"`
	IsExcluded bool   `json:"is_excluded"`
	Timestamp  string `json:"timestamp"`
	UserID     string `json:"user_id,omitempty"`
}

// NewRecord assembles a Record from an already encoded proof and the
// canonical public-values bytes. The timestamp is supplied by the caller;
// the core never reads the clock.
func NewRecord(encodedProof []byte, publicValues []byte, at time.Time, userID string) (*Record, error) {
	isExcluded, _, err := common.DecodePublicValues(publicValues)
	if err != nil {
		return nil, err
	}
	return &Record{
		Proof:      hex.EncodeToString(encodedProof),
		IsExcluded: isExcluded,
		Timestamp:  at.UTC().Format(time.RFC3339),
		UserID:     userID,
	}, nil
}
