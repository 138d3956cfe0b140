package encode

import (
	"bytes"
	stderrors "errors"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/frontend"
	"github.com/go-errors/errors"

	"github.com/privacyproofs/zkip/circuit"
	"github.com/privacyproofs/zkip/internal/common"
	"github.com/privacyproofs/zkip/proving"
)

// ErrVerificationKeyMismatch is returned when a proof was produced under a
// different predicate version than the key it is being checked against. A
// plain error so it survives go-errors wrapping and matches under errors.Is.
var ErrVerificationKeyMismatch = stderrors.New("proof and verification key belong to different predicate versions")

// Fingerprint derives the stable identity of an exported verification key,
// a SHA2-256 multihash of its serialized form. Proof artifacts carry the
// fingerprint of the key they verify against.
func Fingerprint(vk []byte) []byte {
	return common.KeyFingerprint(vk)
}

// Verify checks a proof artifact against an exported verification key and
// the canonical public-values bytes it claims to commit to. Key/proof
// version skew is detected from fingerprints before any pairing work.
func Verify(p *proving.Proof, vkBytes, publicValues []byte) error {
	if !bytes.Equal(common.KeyFingerprint(vkBytes), p.KeyDigest) {
		return errors.WrapPrefix(ErrVerificationKeyMismatch, "fingerprint mismatch", 0)
	}

	isExcluded, digest, err := common.DecodePublicValues(publicValues)
	if err != nil {
		return err
	}
	pw, err := frontend.NewWitness(circuit.PublicAssignment(isExcluded, digest), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return errors.WrapPrefix(err, "building public witness", 0)
	}

	switch p.Scheme {
	case proving.SchemeGroth16:
		vk := groth16.NewVerifyingKey(ecc.BN254)
		if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
			return errors.WrapPrefix(err, "reading groth16 verifying key", 0)
		}
		proof := groth16.NewProof(ecc.BN254)
		if _, err := proof.ReadFrom(bytes.NewReader(p.Data)); err != nil {
			return errors.WrapPrefix(err, "reading groth16 proof", 0)
		}
		if err := groth16.Verify(proof, vk, pw); err != nil {
			return errors.WrapPrefix(err, "groth16 verify", 0)
		}
		return nil
	case proving.SchemePlonk:
		vk := plonk.NewVerifyingKey(ecc.BN254)
		if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
			return errors.WrapPrefix(err, "reading plonk verifying key", 0)
		}
		proof := plonk.NewProof(ecc.BN254)
		if _, err := proof.ReadFrom(bytes.NewReader(p.Data)); err != nil {
			return errors.WrapPrefix(err, "reading plonk proof", 0)
		}
		if err := plonk.Verify(proof, vk, pw); err != nil {
			return errors.WrapPrefix(err, "plonk verify", 0)
		}
		return nil
	default:
		return errors.Errorf("proof carries unknown scheme %d", p.Scheme)
	}
}
