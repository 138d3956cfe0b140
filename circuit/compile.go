package circuit

import (
	"bytes"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/go-errors/errors"
)

// CompileR1CS compiles the predicate for Groth16 proving.
func CompileR1CS() (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &ExclusionCircuit{})
	if err != nil {
		return nil, errors.WrapPrefix(err, "compiling exclusion predicate (r1cs)", 0)
	}
	return ccs, nil
}

// CompileSCS compiles the predicate for Plonk proving.
func CompileSCS() (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, &ExclusionCircuit{})
	if err != nil {
		return nil, errors.WrapPrefix(err, "compiling exclusion predicate (scs)", 0)
	}
	return ccs, nil
}

// Groth16System is a compiled predicate with its Groth16 key pair. One
// instance serves any number of concurrent proofs; the verification key is
// fixed the moment the system is set up, and re-exported byte-identically
// from then on.
type Groth16System struct {
	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

// SetupGroth16 compiles the predicate and runs the Groth16 key ceremony.
// The resulting keys are randomized at generation; persist them with
// WriteKeysTo and reload with LoadGroth16 to keep one predicate version
// across processes.
func SetupGroth16() (*Groth16System, error) {
	ccs, err := CompileR1CS()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, errors.WrapPrefix(err, "groth16 setup", 0)
	}
	return &Groth16System{CCS: ccs, PK: pk, VK: vk}, nil
}

// LoadGroth16 recompiles the predicate and reads a previously persisted
// key pair.
func LoadGroth16(pkR, vkR io.Reader) (*Groth16System, error) {
	ccs, err := CompileR1CS()
	if err != nil {
		return nil, err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(pkR); err != nil {
		return nil, errors.WrapPrefix(err, "reading groth16 proving key", 0)
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkR); err != nil {
		return nil, errors.WrapPrefix(err, "reading groth16 verifying key", 0)
	}
	return &Groth16System{CCS: ccs, PK: pk, VK: vk}, nil
}

// WriteKeysTo persists the key pair.
func (s *Groth16System) WriteKeysTo(pkW, vkW io.Writer) error {
	if _, err := s.PK.WriteTo(pkW); err != nil {
		return errors.WrapPrefix(err, "writing groth16 proving key", 0)
	}
	if _, err := s.VK.WriteTo(vkW); err != nil {
		return errors.WrapPrefix(err, "writing groth16 verifying key", 0)
	}
	return nil
}

// Prove generates a proof for the assignment and returns its serialized
// form.
func (s *Groth16System) Prove(assignment *ExclusionCircuit) ([]byte, error) {
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, errors.WrapPrefix(err, "building witness", 0)
	}
	proof, err := groth16.Prove(s.CCS, s.PK, w)
	if err != nil {
		return nil, errors.WrapPrefix(err, "groth16 prove", 0)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, errors.WrapPrefix(err, "serializing groth16 proof", 0)
	}
	return buf.Bytes(), nil
}

// Verify checks a serialized proof against the system's verification key
// and the claimed public outputs.
func (s *Groth16System) Verify(proofBytes []byte, isExcluded bool, digest [32]byte) error {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return errors.WrapPrefix(err, "reading groth16 proof", 0)
	}
	pw, err := frontend.NewWitness(PublicAssignment(isExcluded, digest), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return errors.WrapPrefix(err, "building public witness", 0)
	}
	if err := groth16.Verify(proof, s.VK, pw); err != nil {
		return errors.WrapPrefix(err, "groth16 verify", 0)
	}
	return nil
}

// VerificationKeyBytes returns the serialized verification key. The output
// is deterministic for a given system.
func (s *Groth16System) VerificationKeyBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.VK.WriteTo(&buf); err != nil {
		return nil, errors.WrapPrefix(err, "serializing groth16 verifying key", 0)
	}
	return buf.Bytes(), nil
}

// PlonkSystem is the Plonk counterpart of Groth16System.
type PlonkSystem struct {
	CCS constraint.ConstraintSystem
	PK  plonk.ProvingKey
	VK  plonk.VerifyingKey
}

// SetupPlonk compiles the predicate and sets up Plonk keys over a locally
// generated KZG SRS. The SRS here is suitable for development and tests;
// production deployments load a ceremony SRS instead.
func SetupPlonk() (*PlonkSystem, error) {
	ccs, err := CompileSCS()
	if err != nil {
		return nil, err
	}
	srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, errors.WrapPrefix(err, "building kzg srs", 0)
	}
	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, errors.WrapPrefix(err, "plonk setup", 0)
	}
	return &PlonkSystem{CCS: ccs, PK: pk, VK: vk}, nil
}

// Prove generates a proof for the assignment and returns its serialized
// form.
func (s *PlonkSystem) Prove(assignment *ExclusionCircuit) ([]byte, error) {
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, errors.WrapPrefix(err, "building witness", 0)
	}
	proof, err := plonk.Prove(s.CCS, s.PK, w)
	if err != nil {
		return nil, errors.WrapPrefix(err, "plonk prove", 0)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, errors.WrapPrefix(err, "serializing plonk proof", 0)
	}
	return buf.Bytes(), nil
}

// Verify checks a serialized proof against the system's verification key
// and the claimed public outputs.
func (s *PlonkSystem) Verify(proofBytes []byte, isExcluded bool, digest [32]byte) error {
	proof := plonk.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return errors.WrapPrefix(err, "reading plonk proof", 0)
	}
	pw, err := frontend.NewWitness(PublicAssignment(isExcluded, digest), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return errors.WrapPrefix(err, "building public witness", 0)
	}
	if err := plonk.Verify(proof, s.VK, pw); err != nil {
		return errors.WrapPrefix(err, "plonk verify", 0)
	}
	return nil
}

// VerificationKeyBytes returns the serialized verification key. The output
// is deterministic for a given system.
func (s *PlonkSystem) VerificationKeyBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.VK.WriteTo(&buf); err != nil {
		return nil, errors.WrapPrefix(err, "serializing plonk verifying key", 0)
	}
	return buf.Bytes(), nil
}
