package encode

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacyproofs/zkip/internal/common"
	"github.com/privacyproofs/zkip/proving"
)

func sampleProof() *proving.Proof {
	return &proving.Proof{
		Scheme:    proving.SchemeGroth16,
		Data:      []byte{0xde, 0xad, 0xbe, 0xef},
		KeyDigest: common.KeyFingerprint([]byte("vk")),
	}
}

func TestParseSystem(t *testing.T) {
	for name, want := range map[string]System{"native": Native, "groth16": Groth16, "plonk": Plonk} {
		got, err := ParseSystem(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}
	_, err := ParseSystem("stark")
	assert.ErrorIs(t, err, ErrUnknownSystem)
}

func TestEncodeUnknownSystem(t *testing.T) {
	_, err := Encode(sampleProof(), System(42))
	assert.ErrorIs(t, err, ErrUnknownSystem)
}

func TestEncodeSchemeMismatch(t *testing.T) {
	p := sampleProof()
	_, err := Encode(p, Plonk)
	assert.ErrorIs(t, err, ErrSchemeMismatch)

	p.Scheme = proving.SchemePlonk
	_, err = Encode(p, Groth16)
	assert.ErrorIs(t, err, ErrSchemeMismatch)
}

func TestNativeFrameRoundtrip(t *testing.T) {
	p := sampleProof()
	frame, err := Encode(p, Native)
	require.NoError(t, err)

	decoded, err := DecodeNative(frame)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestDecodeNativeRejectsGarbage(t *testing.T) {
	_, err := DecodeNative([]byte("not a frame"))
	assert.Error(t, err)

	p := sampleProof()
	frame, err := Encode(p, Native)
	require.NoError(t, err)

	bad := append([]byte(nil), frame...)
	bad[4] = 99 // unsupported version
	_, err = DecodeNative(bad)
	assert.Error(t, err)

	bad = append([]byte(nil), frame...)
	bad[5] = 99 // unknown scheme
	_, err = DecodeNative(bad)
	assert.Error(t, err)

	_, err = DecodeNative(frame[:7])
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKeyBeforeParsing(t *testing.T) {
	p := sampleProof()
	values := common.EncodePublicValues(true, [32]byte{1})
	// Wrong key: rejected on fingerprint alone, even though the proof
	// bytes are not parseable.
	err := Verify(p, []byte("some other vk"), values)
	assert.ErrorIs(t, err, ErrVerificationKeyMismatch)
}

func TestFingerprintDeterministic(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("vk")), Fingerprint([]byte("vk")))
	assert.NotEqual(t, Fingerprint([]byte("vk")), Fingerprint([]byte("vk2")))
}

func TestNewRecord(t *testing.T) {
	set := common.PadExcluded([]uint16{common.PackCode("US")})
	digest := common.ExcludedDigest(&set)
	values := common.EncodePublicValues(true, digest)

	at := time.Date(2024, 5, 17, 12, 30, 0, 0, time.UTC)
	rec, err := NewRecord([]byte{0xab, 0xcd}, values, at, "user-7")
	require.NoError(t, err)
	assert.Equal(t, "abcd", rec.Proof)
	assert.True(t, rec.IsExcluded)
	assert.Equal(t, "2024-05-17T12:30:00Z", rec.Timestamp)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	// The durable record never contains the address or the jurisdiction.
	assert.NotContains(t, string(raw), "address")
	assert.NotContains(t, string(raw), "jurisdiction")

	_, err = NewRecord(nil, []byte("short"), at, "")
	assert.Error(t, err)
}
