package zkip

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/privacyproofs/zkip/encode"
	"github.com/privacyproofs/zkip/proving"
	"github.com/privacyproofs/zkip/rangetable"
)

// Request is one evaluation's inputs. The address and table are private
// and belong exclusively to this request; the orchestrator scrubs both the
// moment the evaluation or backend call finishes, whatever the outcome.
type Request struct {
	Address  rangetable.Address
	Table    rangetable.RangeTable
	Excluded ExcludedSet
}

func (r *Request) scrub() {
	r.Address = 0
	r.Table.Scrub()
}

// Result is the durable outcome of a proving request.
type Result struct {
	Values *PublicValues
	Proof  *proving.Proof
}

// EncodedResult is a Result whose proof has been rendered for an external
// verifier.
type EncodedResult struct {
	Values *PublicValues
	Proof  []byte
	System encode.System
}

// Orchestrator drives predicate evaluations, locally or against a
// verifiable-computation backend. It never retries a backend call and
// never lets private inputs outlive the request that carried them.
type Orchestrator struct {
	backend proving.Backend
}

// NewOrchestrator returns an orchestrator bound to a backend. The backend
// may be nil if only Evaluate is used.
func NewOrchestrator(backend proving.Backend) *Orchestrator {
	return &Orchestrator{backend: backend}
}

// Evaluate runs the predicate locally and returns the public values without
// producing a proof. The request's private inputs are consumed.
func (o *Orchestrator) Evaluate(req *Request) (*PublicValues, error) {
	defer req.scrub()
	return Evaluate(req.Address, req.Table, req.Excluded)
}

// Prove dispatches the predicate evaluation to the backend and blocks until
// the proof is ready, the backend fails, or ctx is done. On failure no
// public values are returned; on an expired context the result is unknown,
// not a success. Backend errors propagate unmodified.
func (o *Orchestrator) Prove(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	priv := &proving.PrivateInput{IP: uint32(req.Address)}
	priv.Starts, priv.Ends, priv.Codes = req.Table.Padded()
	req.scrub()
	defer priv.Scrub()

	privBlob, err := proving.EncodePrivateInput(priv)
	if err != nil {
		return nil, err
	}
	defer scrubBytes(privBlob)

	pubBlob, err := proving.EncodePublicInput(&proving.PublicInput{Excluded: req.Excluded.padded()})
	if err != nil {
		return nil, err
	}

	resp, err := o.backend.Prove(ctx, &proving.Request{PrivateInput: privBlob, PublicInput: pubBlob})
	if err != nil {
		return nil, err
	}

	values, err := ParsePublicValues(resp.PublicValues)
	if err != nil {
		return nil, err
	}

	Logger.WithFields(logrus.Fields{
		"scheme":      resp.Scheme.String(),
		"proof_bytes": len(resp.Proof),
		"elapsed":     time.Since(start).String(),
	}).Debug("proof generated")

	return &Result{
		Values: values,
		Proof: &proving.Proof{
			Scheme:    resp.Scheme,
			Data:      resp.Proof,
			KeyDigest: resp.KeyDigest,
		},
	}, nil
}

// ProveEncoded is Prove followed by rendering the proof in the requested
// external layout.
func (o *Orchestrator) ProveEncoded(ctx context.Context, req *Request, system encode.System) (*EncodedResult, error) {
	result, err := o.Prove(ctx, req)
	if err != nil {
		return nil, err
	}
	encoded, err := encode.Encode(result.Proof, system)
	if err != nil {
		return nil, err
	}
	return &EncodedResult{Values: result.Values, Proof: encoded, System: system}, nil
}

// ExportKey returns the backend's serialized verification key. It is
// independent of any request and stable per compiled predicate version.
func (o *Orchestrator) ExportKey() ([]byte, error) {
	return o.backend.VerificationKey()
}

func scrubBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
