package proving

import (
	"context"

	"github.com/go-errors/errors"

	"github.com/privacyproofs/zkip/circuit"
	"github.com/privacyproofs/zkip/internal/common"
)

// Local is an in-process gnark backend. Setup is expensive (circuit
// compilation plus key generation), so a Local is built once and shared;
// Prove is safe for concurrent use.
type Local struct {
	scheme    Scheme
	groth16   *circuit.Groth16System
	plonk     *circuit.PlonkSystem
	vkBytes   []byte
	keyDigest []byte
}

// NewLocal compiles the predicate and sets up keys for the given scheme.
func NewLocal(scheme Scheme) (*Local, error) {
	l := &Local{scheme: scheme}
	var err error
	switch scheme {
	case SchemeGroth16:
		if l.groth16, err = circuit.SetupGroth16(); err != nil {
			return nil, err
		}
		l.vkBytes, err = l.groth16.VerificationKeyBytes()
	case SchemePlonk:
		if l.plonk, err = circuit.SetupPlonk(); err != nil {
			return nil, err
		}
		l.vkBytes, err = l.plonk.VerificationKeyBytes()
	default:
		return nil, errors.Errorf("unknown proving scheme %d", scheme)
	}
	if err != nil {
		return nil, err
	}
	l.keyDigest = common.KeyFingerprint(l.vkBytes)
	return l, nil
}

// NewLocalGroth16 wraps an existing Groth16 system, typically one reloaded
// from persisted keys.
func NewLocalGroth16(sys *circuit.Groth16System) (*Local, error) {
	vk, err := sys.VerificationKeyBytes()
	if err != nil {
		return nil, err
	}
	return &Local{
		scheme:    SchemeGroth16,
		groth16:   sys,
		vkBytes:   vk,
		keyDigest: common.KeyFingerprint(vk),
	}, nil
}

// Scheme returns the proof system this backend proves with.
func (l *Local) Scheme() Scheme {
	return l.scheme
}

// VerificationKey returns the serialized verification key of the compiled
// predicate.
func (l *Local) VerificationKey() ([]byte, error) {
	out := make([]byte, len(l.vkBytes))
	copy(out, l.vkBytes)
	return out, nil
}

// Prove decodes the input blobs, evaluates the predicate, and generates a
// proof of the evaluation. Malformed blobs are fatal; an expired context is
// reported as transient with the result unknown, since the in-flight
// computation is not rolled back.
func (l *Local) Prove(ctx context.Context, req *Request) (*Response, error) {
	priv, err := DecodePrivateInput(req.PrivateInput)
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	defer priv.Scrub()
	pub, err := DecodePublicInput(req.PublicInput)
	if err != nil {
		return nil, &BackendError{Err: err}
	}

	assignment, isExcluded, digest := circuit.NewAssignment(priv.IP, &priv.Starts, &priv.Ends, &priv.Codes, &pub.Excluded)

	type outcome struct {
		proof []byte
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		switch l.scheme {
		case SchemeGroth16:
			o.proof, o.err = l.groth16.Prove(assignment)
		case SchemePlonk:
			o.proof, o.err = l.plonk.Prove(assignment)
		}
		done <- o
	}()

	select {
	case <-ctx.Done():
		return nil, &BackendError{Transient: true, Err: errors.WrapPrefix(ctx.Err(), "proving abandoned, result unknown", 0)}
	case o := <-done:
		if o.err != nil {
			return nil, &BackendError{Err: o.err}
		}
		return &Response{
			Proof:        o.proof,
			PublicValues: common.EncodePublicValues(isExcluded, digest),
			Scheme:       l.scheme,
			KeyDigest:    l.keyDigest,
		}, nil
	}
}
