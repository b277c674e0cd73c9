package fingerprint

import (
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		fp   []int32
		want []byte
	}{
		{"one bit", []int32{1}, []byte{0, 0, 0, 1, 0x01}},
		{"three bits", []int32{7}, []byte{0, 0, 0, 1, 0x49, 0x00}},
		{"exception", []int32{1 << 6}, []byte{0, 0, 0, 1, 0x07, 0x00}},
		{"exception with remainder", []int32{1 << 8}, []byte{0, 0, 0, 1, 0x07, 0x02}},
		{"two items", []int32{1, 0}, []byte{0, 0, 0, 2, 0x41, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compress(tt.fp, 0))

			fp, algorithm, err := Decompress(tt.want)
			require.NoError(t, err)
			assert.Equal(t, 0, algorithm)
			assert.Equal(t, tt.fp, fp)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 50; n++ {
		fp := make([]int32, rng.Intn(200)+1)
		for i := range fp {
			fp[i] = int32(rng.Uint32())
		}
		fp[0] = -1

		decoded, algorithm, err := Decode(Encode(fp, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, algorithm)
		assert.Equal(t, fp, decoded)
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, s := range []string{"", "!!!", "AQAA", "AQAAAg"} {
		fp, _, err := Decode(s)
		assert.ErrorIs(t, err, ErrInvalidFingerprint, s)
		assert.Empty(t, fp, s)
	}

	truncated := Compress([]int32{7}, 0)
	_, _, err := Decompress(truncated[:len(truncated)-1])
	assert.ErrorIs(t, err, ErrInvalidFingerprint)

	missingException := Compress([]int32{1 << 8}, 0)
	_, _, err = Decompress(missingException[:len(missingException)-1])
	assert.ErrorIs(t, err, ErrInvalidFingerprint)
}

func TestDecodeAcceptsPadding(t *testing.T) {
	encoded := Encode([]int32{1, 2, 3}, 1)
	fp, _, err := Decode(encoded + "==")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, fp)
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	// the header claims 0xFFFFFF sub-fingerprints, the body holds one byte
	encoded := "Af___wA"

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	fp, _, err := Decode(encoded)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrInvalidFingerprint)
	assert.Empty(t, fp)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))

	// a header that fits its body still decodes
	_, _, err = Decompress([]byte{1, 0, 0, 2, 0x00})
	assert.NoError(t, err)
}
