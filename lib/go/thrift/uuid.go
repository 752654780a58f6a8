package thrift

import uuid "github.com/satori/go.uuid"

// Tuuid is the 16-byte value the compact protocol's UUID kind carries
// on the wire, verbatim and unframed (see §4.2 of the spec addendum).
// satori/go.uuid's UUID is already a [16]byte array with RFC 4122
// string formatting, so it's used directly rather than re-declared.
type Tuuid = uuid.UUID

// NewTuuid generates a random (version 4) UUID, the common case for a
// caller minting a fresh correlation id to place in a compact-encoded
// struct.
func NewTuuid() (Tuuid, error) {
	return uuid.NewV4()
}

// ParseTuuid parses the canonical 36-character UUID string form.
func ParseTuuid(s string) (Tuuid, error) {
	return uuid.FromString(s)
}
