// Package face wraps the external face-recognition capability behind a
// small adapter: turning an image into an encoding is delegated to a
// remote model service, while distance comparison happens locally so the
// concrete embedding model stays swappable.
package face

import "context"

// Encoder produces a fixed-length face encoding for an image, given as
// base64 (optionally data-URI-prefixed) bytes. A nil vector with a nil
// error means no face was detected, including undecodable image data.
type Encoder interface {
	Encode(ctx context.Context, image string) ([]float64, error)
}

// Match returns the index of the known encoding closest to probe, provided
// that minimum distance is below threshold. Ties resolve to the lowest
// index. The boolean is false when known is empty or nothing is close
// enough.
func Match(probe []float64, known [][]float64, threshold float64) (int, bool) {
	best := -1
	var bestDist float64
	for i, k := range known {
		d := Distance(probe, k)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best == -1 || bestDist >= threshold {
		return -1, false
	}
	return best, true
}

// Matcher combines an Encoder with an acceptance threshold.
type Matcher struct {
	Encoder   Encoder
	Threshold float64
}

// Recognize encodes the probe image and matches it against known
// encodings. A probe that yields no encoding never matches.
func (m *Matcher) Recognize(ctx context.Context, image string, known [][]float64) (int, bool, error) {
	probe, err := m.Encoder.Encode(ctx, image)
	if err != nil {
		return -1, false, err
	}
	if probe == nil {
		return -1, false, nil
	}
	idx, ok := Match(probe, known, m.Threshold)
	return idx, ok, nil
}
