package ocr

import "sort"

// DefaultDetectConfidence is the minimum detector score kept.
const DefaultDetectConfidence = 0.3

// DetectionOutput is the raw detector result: Boxes holds x1,y1,x2,y2 per
// score, in detector-input pixels.
type DetectionOutput struct {
	Boxes  []float32
	Scores []float32
}

// RawRegion is one detector proposal mapped to frame pixels.
type RawRegion struct {
	Box   Box
	Score float64
}

// Region is a merged group of overlapping proposals.
type Region struct {
	Box     Box
	Score   float64
	Members int
}

// DetectionReducer turns detector proposals into ordered, non-overlapping text regions.
type DetectionReducer struct {
	MinConfidence float64
}

// Reduce filters, rescales, clamps and merges the proposals in out. resizeScale
// is the factor the frame was resized by to build the detector input; width and
// height are the frame dimensions. Missing or malformed output yields no regions.
func (r DetectionReducer) Reduce(out *DetectionOutput, resizeScale float64, width, height int) []Region {
	raw := r.rawRegions(out, resizeScale, width, height)
	return MergeOverlapping(raw)
}

func (r DetectionReducer) rawRegions(out *DetectionOutput, resizeScale float64, width, height int) []RawRegion {
	if out == nil || len(out.Scores) == 0 || len(out.Boxes) != 4*len(out.Scores) {
		return nil
	}
	if !(resizeScale > 0) || !validFloat(resizeScale) || width <= 0 || height <= 0 {
		return nil
	}

	toFrame := DetectionTransform(resizeScale)
	w, h := float64(width), float64(height)

	raw := make([]RawRegion, 0, len(out.Scores))
	for i, s := range out.Scores {
		score := float64(s)
		if !validFloat(score) || score < r.MinConfidence {
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
		if b.X2 < b.X1 {
			b.X1, b.X2 = b.X2, b.X1
		}
		if b.Y2 < b.Y1 {
			b.Y1, b.Y2 = b.Y2, b.Y1
		}

		box := toFrame.Box(b).Clamp(w, h)
		// Entirely outside the frame.
		if box.Width() <= 0 || box.Height() <= 0 {
			continue
		}
		raw = append(raw, RawRegion{Box: box, Score: score})
	}
	return raw
}

// MergeOverlapping collapses every overlap-connected group of boxes into one
// region spanning the group, scored by the group's best member. Groups are
// transitive: A and C join when both overlap B. A group's span that covers
// another region absorbs it too, so no two output regions overlap. Output is
// sorted top to bottom.
func MergeOverlapping(raw []RawRegion) []Region {
	if len(raw) == 0 {
		return []Region{}
	}

	parent := make([]int, len(raw))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < len(raw); i++ {
		for j := i + 1; j < len(raw); j++ {
			if raw[i].Box.Overlaps(raw[j].Box) {
				if ri, rj := find(i), find(j); ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	groups := make(map[int]int) // root -> index in regions
	regions := make([]Region, 0, len(raw))
	for i, rr := range raw {
		root := find(i)
		idx, ok := groups[root]
		if !ok {
			groups[root] = len(regions)
			regions = append(regions, Region{Box: rr.Box, Score: rr.Score, Members: 1})
			continue
		}
		g := &regions[idx]
		g.Box = g.Box.Union(rr.Box)
		if rr.Score > g.Score {
			g.Score = rr.Score
		}
		g.Members++
	}

	regions = absorbOverlapping(regions)

	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Box.Y1 != regions[j].Box.Y1 {
			return regions[i].Box.Y1 < regions[j].Box.Y1
		}
		return regions[i].Box.X1 < regions[j].Box.X1
	})
	return regions
}

// absorbOverlapping merges regions whose spans overlap until none do.
func absorbOverlapping(regions []Region) []Region {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(regions); i++ {
			for j := i + 1; j < len(regions); j++ {
				if !regions[i].Box.Overlaps(regions[j].Box) {
					continue
				}
				a, b := &regions[i], regions[j]
				a.Box = a.Box.Union(b.Box)
				if b.Score > a.Score {
					a.Score = b.Score
				}
				a.Members += b.Members
				regions = append(regions[:j], regions[j+1:]...)
				merged = true
				j--
			}
		}
	}
	return regions
}
