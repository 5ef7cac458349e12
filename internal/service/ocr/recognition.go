package ocr

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultRecognizeConfidence is the minimum per-character score kept.
	DefaultRecognizeConfidence = 0.1
	// DefaultXOverlap is the fraction of the narrower interval two characters may
	// share before the less confident one is dropped.
	DefaultXOverlap = 0.3
)

// RecognitionOutput is the raw recognizer result for one line crop: a code
// point, a box (x1,y1,x2,y2 in recognizer-input pixels) and a score per character.
type RecognitionOutput struct {
	Labels []int32
	Boxes  []float32
	Scores []float32
}

// CharCandidate is one recognized character mapped to crop pixels.
type CharCandidate struct {
	Char       rune
	Box        Box
	Confidence float64
	Start      float64
	End        float64
}

// Geometry describes how a crop was fitted into the recognizer input.
type Geometry struct {
	CropWidth      int
	CropHeight     int
	EffectiveWidth int
	InputHeight    int
}

// Transform returns the recognizer-input to crop mapping.
func (g Geometry) Transform() Transform {
	return RecognitionTransform(g.CropWidth, g.CropHeight, g.EffectiveWidth, g.InputHeight)
}

// RecognitionReducer turns recognizer output into line text.
type RecognitionReducer struct {
	MinConfidence float64
	MaxOverlap    float64
}

// Reduce returns the line text and the characters that built it, left to right.
// Missing or malformed output yields empty text.
func (r RecognitionReducer) Reduce(out *RecognitionOutput, g Geometry) (string, []CharCandidate) {
	accepted := Dedup(r.Candidates(out, g), r.MaxOverlap)

	var sb strings.Builder
	for _, c := range accepted {
		sb.WriteRune(c.Char)
	}
	return sb.String(), accepted
}

// Candidates filters by confidence and remaps surviving characters into crop
// pixels. X coordinates are first clamped to the effective content width so
// boxes reaching into the padding are cut off; a character left with no width
// is dropped.
func (r RecognitionReducer) Candidates(out *RecognitionOutput, g Geometry) []CharCandidate {
	if out == nil || len(out.Labels) == 0 ||
		len(out.Scores) != len(out.Labels) || len(out.Boxes) != 4*len(out.Labels) {
		return nil
	}
	if g.EffectiveWidth <= 0 || g.InputHeight <= 0 || g.CropWidth <= 0 || g.CropHeight <= 0 {
		return nil
	}

	toCrop := g.Transform()
	limit := float64(g.EffectiveWidth)

	candidates := make([]CharCandidate, 0, len(out.Labels))
	for i, label := range out.Labels {
		score := float64(out.Scores[i])
		if !validFloat(score) || score < r.MinConfidence {
			continue
		}
		ch := rune(label)
		if !utf8.ValidRune(ch) || ch == 0 {
			continue
		}

		b := Box{
			X1: float64(out.Boxes[4*i]),
			Y1: float64(out.Boxes[4*i+1]),
			X2: float64(out.Boxes[4*i+2]),
			Y2: float64(out.Boxes[4*i+3]),
		}
		if !validFloat(b.X1) || !validFloat(b.Y1) || !validFloat(b.X2) || !validFloat(b.Y2) {
			continue
		}
		b.X1 = clamp(b.X1, 0, limit)
		b.X2 = clamp(b.X2, 0, limit)
		if b.X2 <= b.X1 {
			continue
		}

		mapped := toCrop.Box(b)
		candidates = append(candidates, CharCandidate{
			Char:       ch,
			Box:        mapped,
			Confidence: score,
			Start:      mapped.X1,
			End:        mapped.X2,
		})
	}
	return candidates
}

// Dedup keeps, among characters whose horizontal intervals overlap by more
// than maxOverlap of the narrower one, only the most confident. The result is
// ordered by interval start.
func Dedup(candidates []CharCandidate, maxOverlap float64) []CharCandidate {
	if len(candidates) == 0 {
		return nil
	}

	byConfidence := make([]CharCandidate, len(candidates))
	copy(byConfidence, candidates)
	sort.SliceStable(byConfidence, func(i, j int) bool {
		return byConfidence[i].Confidence > byConfidence[j].Confidence
	})

	accepted := make([]CharCandidate, 0, len(byConfidence))
	for _, c := range byConfidence {
		clash := false
		for _, a := range accepted {
			if OverlapRatio(c, a) > maxOverlap {
				clash = true
				break
			}
		}
		if !clash {
			accepted = append(accepted, c)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted
}

// OverlapRatio is the shared horizontal extent of a and b divided by the
// narrower width. Zero-width intervals never overlap.
func OverlapRatio(a, b CharCandidate) float64 {
	narrow := min(a.End-a.Start, b.End-b.Start)
	if narrow <= 0 {
		return 0
	}
	shared := min(a.End, b.End) - max(a.Start, b.Start)
	if shared <= 0 {
		return 0
	}
	return shared / narrow
}
