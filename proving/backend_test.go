package proving

import (
	"context"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacyproofs/zkip/internal/common"
)

func samplePrivateInput() *PrivateInput {
	in := &PrivateInput{IP: 0x08080808}
	for i := range in.Starts {
		in.Starts[i] = ^uint32(0)
	}
	in.Starts[0], in.Ends[0], in.Codes[0] = 0x08080800, 0x080808ff, common.PackCode("US")
	return in
}

func TestPrivateInputBlobDeterministic(t *testing.T) {
	in := samplePrivateInput()
	a, err := EncodePrivateInput(in)
	require.NoError(t, err)
	b, err := EncodePrivateInput(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	decoded, err := DecodePrivateInput(a)
	require.NoError(t, err)
	assert.Equal(t, in, decoded)

	_, err = DecodePrivateInput([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestPrivateInputBlobConstantSize(t *testing.T) {
	small := samplePrivateInput()
	a, err := EncodePrivateInput(small)
	require.NoError(t, err)

	full := samplePrivateInput()
	for i := range full.Starts {
		full.Starts[i] = uint32(i) << 16
		full.Ends[i] = uint32(i)<<16 | 255
		full.Codes[i] = common.PackCode("DE")
	}
	b, err := EncodePrivateInput(full)
	require.NoError(t, err)

	assert.Equal(t, len(a), len(b), "blob size must not depend on table contents")
}

func TestPublicInputBlobRoundtrip(t *testing.T) {
	in := &PublicInput{Excluded: common.PadExcluded([]uint16{common.PackCode("FR"), common.PackCode("US")})}
	b, err := EncodePublicInput(in)
	require.NoError(t, err)
	decoded, err := DecodePublicInput(b)
	require.NoError(t, err)
	assert.Equal(t, in, decoded)
}

func TestPrivateInputScrub(t *testing.T) {
	in := samplePrivateInput()
	in.Scrub()
	assert.Zero(t, in.IP)
	for i := range in.Starts {
		assert.Zero(t, in.Starts[i])
		assert.Zero(t, in.Ends[i])
		assert.Zero(t, in.Codes[i])
	}
}

// countingBackend fails with a configurable error until the remaining
// failure budget is spent.
type countingBackend struct {
	calls    int
	failures int
	err      error
}

func (c *countingBackend) Prove(ctx context.Context, req *Request) (*Response, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, c.err
	}
	return &Response{Proof: []byte("proof"), Scheme: SchemeGroth16}, nil
}

func (c *countingBackend) VerificationKey() ([]byte, error) {
	return []byte("vk"), nil
}

func TestWithRetryRecoversFromTransient(t *testing.T) {
	b := &countingBackend{failures: 2, err: &BackendError{Transient: true, Err: errors.New("connection reset")}}
	resp, err := WithRetry(b, 3, time.Millisecond).Prove(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, []byte("proof"), resp.Proof)
	assert.Equal(t, 3, b.calls)
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	b := &countingBackend{failures: 10, err: &BackendError{Transient: true, Err: errors.New("connection reset")}}
	_, err := WithRetry(b, 3, time.Millisecond).Prove(context.Background(), &Request{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 3, b.calls, "retry budget is a hard bound")
}

func TestWithRetryDoesNotRetryFatal(t *testing.T) {
	b := &countingBackend{failures: 10, err: &BackendError{Err: errors.New("circuit mismatch")}}
	_, err := WithRetry(b, 3, time.Millisecond).Prove(context.Background(), &Request{})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, 1, b.calls)
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	b := &countingBackend{failures: 10, err: &BackendError{Transient: true, Err: errors.New("timeout")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WithRetry(b, 5, time.Minute).Prove(ctx, &Request{})
	require.Error(t, err)
	assert.Equal(t, 1, b.calls, "no resubmission once the caller has abandoned the request")
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&BackendError{Transient: true, Err: errors.New("x")}))
	assert.False(t, IsTransient(&BackendError{Err: errors.New("x")}))
	assert.False(t, IsTransient(errors.New("x")))
	wrapped := errors.WrapPrefix(&BackendError{Transient: true, Err: errors.New("x")}, "outer", 0)
	assert.True(t, IsTransient(wrapped))
}
