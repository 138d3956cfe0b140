// Package proving defines the boundary to the verifiable-computation
// backend: the opaque input blobs a backend consumes, the proof artifact it
// returns, and the error contract between the two. The Local backend in
// this package proves with gnark in-process; remote backends implement the
// same interface behind whatever transport they need.
package proving

import (
	"context"

	"github.com/go-errors/errors"

	"github.com/privacyproofs/zkip/internal/cborenc"
	"github.com/privacyproofs/zkip/internal/common"
)

// Scheme identifies the proof system a backend proves with.
type Scheme uint8

const (
	SchemeGroth16 Scheme = iota + 1
	SchemePlonk
)

func (s Scheme) String() string {
	switch s {
	case SchemeGroth16:
		return "groth16"
	case SchemePlonk:
		return "plonk"
	default:
		return "unknown"
	}
}

// Request carries one evaluation to a backend. Both blobs are opaque to the
// transport; their logical contents are the PrivateInput and PublicInput
// encodings below.
type Request struct {
	PrivateInput []byte
	PublicInput  []byte
}

// Response is what a backend returns for a successful proof: the serialized
// proof, the canonical public-values bytes it commits to, and the identity
// of the key the proof verifies against.
type Response struct {
	Proof        []byte
	PublicValues []byte
	Scheme       Scheme
	KeyDigest    []byte
}

// Proof is the durable proof artifact. It outlives the request that
// produced it and carries everything a verifier-side consumer needs except
// the verification key itself.
type Proof struct {
	Scheme    Scheme
	Data      []byte
	KeyDigest []byte
}

// Backend is a verifiable-computation backend. Prove blocks until the proof
// is ready or the context is done; implementations must not return partial
// results. VerificationKey is independent of any request and deterministic
// per compiled predicate version.
type Backend interface {
	Prove(ctx context.Context, req *Request) (*Response, error)
	VerificationKey() ([]byte, error)
}

// BackendError is the typed failure of a backend call. Transient marks
// failures that a bounded retry policy may resubmit (timeouts, transport
// interruptions); everything else is fatal and must surface unchanged.
type BackendError struct {
	Transient bool
	Err       error
}

func (e *BackendError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	return "proving backend (" + kind + "): " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a transient backend failure.
func IsTransient(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Transient
}

// PrivateInput is the logical content of the private blob: the address and
// the padded range table. The arrays are fixed-size, so the encoded blob
// has the same length for every table up to the slot bound.
type PrivateInput struct {
	IP     uint32                        `cbor:"1,keyasint"`
	Starts [common.MaxIntervals]uint32   `cbor:"2,keyasint"`
	Ends   [common.MaxIntervals]uint32   `cbor:"3,keyasint"`
	Codes  [common.MaxIntervals]uint16   `cbor:"4,keyasint"`
}

// PublicInput is the logical content of the public blob: the padded,
// packed excluded-set slots in canonical order.
type PublicInput struct {
	Excluded [common.MaxExcluded]uint16 `cbor:"1,keyasint"`
}

// EncodePrivateInput serializes a private blob.
func EncodePrivateInput(in *PrivateInput) ([]byte, error) {
	b, err := cborenc.Marshal(in)
	if err != nil {
		return nil, errors.WrapPrefix(err, "encoding private input", 0)
	}
	return b, nil
}

// DecodePrivateInput parses a private blob.
func DecodePrivateInput(b []byte) (*PrivateInput, error) {
	var in PrivateInput
	if err := cborenc.Unmarshal(b, &in); err != nil {
		return nil, errors.WrapPrefix(err, "decoding private input", 0)
	}
	return &in, nil
}

// EncodePublicInput serializes a public blob.
func EncodePublicInput(in *PublicInput) ([]byte, error) {
	b, err := cborenc.Marshal(in)
	if err != nil {
		return nil, errors.WrapPrefix(err, "encoding public input", 0)
	}
	return b, nil
}

// DecodePublicInput parses a public blob.
func DecodePublicInput(b []byte) (*PublicInput, error) {
	var in PublicInput
	if err := cborenc.Unmarshal(b, &in); err != nil {
		return nil, errors.WrapPrefix(err, "decoding public input", 0)
	}
	return &in, nil
}

// Scrub zeroes the private input in place.
func (in *PrivateInput) Scrub() {
	in.IP = 0
	for i := range in.Starts {
		in.Starts[i] = 0
		in.Ends[i] = 0
		in.Codes[i] = 0
	}
}
