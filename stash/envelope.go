package stash

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EnvelopeVersion is the interchange format version written by Export.
const EnvelopeVersion = 1

// Envelope is the portable form of one snapshot, used to move snapshots
// between stashes. Integer keys keep the encoding compact and stable.
type Envelope struct {
	Version   uint32   `cbor:"1,keyasint"`
	Name      string   `cbor:"2,keyasint"`
	Format    string   `cbor:"3,keyasint"`
	Digest    [32]byte `cbor:"4,keyasint"`
	CreatedAt int64    `cbor:"5,keyasint"`
	Payload   []byte   `cbor:"6,keyasint"`
}

// cborEncMode uses canonical encoding for deterministic envelopes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("stash: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalEnvelope serializes an Envelope to CBOR bytes.
func MarshalEnvelope(e *Envelope) ([]byte, error) {
	return cborEncMode.Marshal(e)
}

// UnmarshalEnvelope deserializes an Envelope from CBOR bytes and rejects
// versions this package does not understand.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("stash: unmarshal envelope: %w", err)
	}
	if e.Version != EnvelopeVersion {
		return nil, fmt.Errorf("stash: unsupported envelope version %d", e.Version)
	}
	return &e, nil
}
