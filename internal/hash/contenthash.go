package hash

import (
	"encoding/base32"
	"encoding/hex"
	"strings"
)

// ContentHash is the 32-byte identity of a canonicalized function (spec.md
// §3): stable under renaming and reformatting, changed by any semantic
// edit to the function or its callees.
type ContentHash [32]byte

// ZeroHash is the placeholder used for not-yet-known callees during the
// first hashing pass.
var ZeroHash ContentHash

// IsZero reports whether h is the all-zero placeholder.
func (h ContentHash) IsZero() bool { return h == ZeroHash }

// Hex renders the full 64-character lowercase hex form.
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

var shortEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Short renders the first 10 characters of the base32 form, the compact
// rendering used in listings and history entries.
func (h ContentHash) Short() string {
	return strings.ToLower(shortEncoding.EncodeToString(h[:]))[:10]
}

func (h ContentHash) String() string { return h.Short() }

// FromHex parses the 64-character hex rendering back into a ContentHash.
func FromHex(s string) (ContentHash, bool) {
	var h ContentHash
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(h) {
		return ContentHash{}, false
	}
	copy(h[:], raw)
	return h, true
}
