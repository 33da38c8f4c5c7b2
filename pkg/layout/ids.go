package layout

import (
	"math/big"

	"github.com/google/uuid"
)

// Reserved identifiers and keys of the serialized layout document. These are
// part of the destination service's wire contract and must be preserved
// exactly.
const (
	// RootID is the reserved identifier of the root record.
	RootID = "ROOT_ID"
	// GridID is the reserved identifier of the grid record, the root's only
	// direct child and the parent of all user content.
	GridID = "GRID_ID"
	// HeaderID is the reserved identifier of the dashboard header record.
	HeaderID = "HEADER_ID"
	// VersionKey is the reserved top-level key holding the format version.
	VersionKey = "DASHBOARD_VERSION_KEY"
	// Version is the layout format version this package emits.
	Version = "v2"
)

// idLength is the number of random characters in a generated node ID.
const idLength = 10

// NewID generates a node identifier in the destination service's
// conventional form: the kind tag, a dash, and 10 random alphanumeric
// characters, e.g. "CHART-4jcz0ne8vh". Identifiers drawn from a fresh UUID
// per call are unique for any practical tree size.
func NewID(kind Kind) string {
	u := uuid.New()
	enc := new(big.Int).SetBytes(u[:]).Text(62)
	for len(enc) < idLength {
		enc = "0" + enc
	}
	return string(kind) + "-" + enc[:idLength]
}
