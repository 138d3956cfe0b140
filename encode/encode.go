// Package encode renders proof artifacts into the byte layouts external
// verifiers consume, and checks proofs against exported verification keys.
// Encoding is a pure transformation of an existing proof; nothing here
// re-runs the predicate.
package encode

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/go-errors/errors"

	"github.com/privacyproofs/zkip/proving"
)

// System selects the external byte layout a proof is rendered in.
type System uint8

const (
	// Native is the backend's own serialization, framed with the scheme
	// and key identity so it can be decoded and verified offline.
	Native System = iota + 1
	// Groth16 is the EVM-verifier calldata layout for Groth16 proofs.
	Groth16
	// Plonk is the EVM-verifier calldata layout for Plonk proofs.
	Plonk
)

func (s System) String() string {
	switch s {
	case Native:
		return "native"
	case Groth16:
		return "groth16"
	case Plonk:
		return "plonk"
	default:
		return "unknown"
	}
}

// ParseSystem maps the external tag names onto System values.
func ParseSystem(s string) (System, error) {
	switch s {
	case "native":
		return Native, nil
	case "groth16":
		return Groth16, nil
	case "plonk":
		return Plonk, nil
	default:
		return 0, errors.WrapPrefix(ErrUnknownSystem, s, 0)
	}
}

// Sentinels are plain errors so they survive go-errors wrapping and match
// under errors.Is.
var (
	// ErrUnknownSystem is returned for a system tag this package does not
	// recognize.
	ErrUnknownSystem = stderrors.New("unknown proof system tag")

	// ErrSchemeMismatch is returned when a proof's scheme cannot satisfy
	// the requested layout, e.g. a Plonk proof under the Groth16 tag.
	ErrSchemeMismatch = stderrors.New("proof scheme does not match requested encoding")
)

// Native frame layout: magic, version, scheme, key digest (length-prefixed),
// proof bytes. The frame is self-describing so a stored proof can be
// re-verified long after the request that produced it.
var nativeMagic = [4]byte{'z', 'k', 'i', 'p'}

const nativeVersion = 1

// Encode renders the proof in the requested layout.
func Encode(p *proving.Proof, system System) ([]byte, error) {
	switch system {
	case Native:
		return encodeNative(p)
	case Groth16:
		if p.Scheme != proving.SchemeGroth16 {
			return nil, errors.WrapPrefix(ErrSchemeMismatch, p.Scheme.String()+" proof under groth16 tag", 0)
		}
		return marshalSolidity(groth16.NewProof(ecc.BN254), p.Data)
	case Plonk:
		if p.Scheme != proving.SchemePlonk {
			return nil, errors.WrapPrefix(ErrSchemeMismatch, p.Scheme.String()+" proof under plonk tag", 0)
		}
		return marshalSolidity(plonk.NewProof(ecc.BN254), p.Data)
	default:
		return nil, errors.WrapPrefix(ErrUnknownSystem, errors.Errorf("tag %d", system).Error(), 0)
	}
}

type solidityMarshaler interface {
	MarshalSolidity() []byte
}

func marshalSolidity(proof io.ReaderFrom, data []byte) ([]byte, error) {
	if _, err := proof.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, errors.WrapPrefix(err, "parsing proof bytes", 0)
	}
	sm, ok := proof.(solidityMarshaler)
	if !ok {
		return nil, errors.WrapPrefix(ErrSchemeMismatch, "proof type has no calldata layout", 0)
	}
	return sm.MarshalSolidity(), nil
}

func encodeNative(p *proving.Proof) ([]byte, error) {
	if len(p.KeyDigest) > 0xffff {
		return nil, errors.Errorf("key digest unreasonably large: %d bytes", len(p.KeyDigest))
	}
	out := make([]byte, 0, 4+1+1+2+len(p.KeyDigest)+len(p.Data))
	out = append(out, nativeMagic[:]...)
	out = append(out, nativeVersion, byte(p.Scheme))
	out = binary.BigEndian.AppendUint16(out, uint16(len(p.KeyDigest)))
	out = append(out, p.KeyDigest...)
	out = append(out, p.Data...)
	return out, nil
}

// DecodeNative parses a Native frame back into a proof artifact.
func DecodeNative(b []byte) (*proving.Proof, error) {
	if len(b) < 8 || !bytes.Equal(b[:4], nativeMagic[:]) {
		return nil, errors.New("not a native proof frame")
	}
	if b[4] != nativeVersion {
		return nil, errors.Errorf("unsupported native frame version %d", b[4])
	}
	scheme := proving.Scheme(b[5])
	if scheme != proving.SchemeGroth16 && scheme != proving.SchemePlonk {
		return nil, errors.Errorf("native frame carries unknown scheme %d", b[5])
	}
	digestLen := int(binary.BigEndian.Uint16(b[6:8]))
	if len(b) < 8+digestLen {
		return nil, errors.New("native frame truncated")
	}
	return &proving.Proof{
		Scheme:    scheme,
		KeyDigest: append([]byte(nil), b[8:8+digestLen]...),
		Data:      append([]byte(nil), b[8+digestLen:]...),
	}, nil
}
