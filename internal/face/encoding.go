package face

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encodings are persisted as raw little-endian float64 buffers, the same
// layout the original model dump used, so the blob width is always a
// multiple of 8 bytes.

// MarshalEncoding serializes a face encoding into its storage blob.
func MarshalEncoding(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// UnmarshalEncoding parses a storage blob back into a face encoding.
func UnmarshalEncoding(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("encoding blob length %d is not a multiple of 8", len(blob))
	}
	vec := make([]float64, len(blob)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return vec, nil
}

// Distance returns the Euclidean distance between two encodings.
// Mismatched lengths compare as infinitely far apart.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
