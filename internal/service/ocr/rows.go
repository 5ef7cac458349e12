package ocr

const (
	// DetectionColumns is the row width of a flat detector tensor:
	// x1, y1, x2, y2, score in input pixels.
	DetectionColumns = 5
	// RecognitionColumns is the row width of a flat recognizer tensor:
	// code point, x1, y1, x2, y2, score in input pixels.
	RecognitionColumns = 6
)

// DetectionFromTensor splits a flat detector tensor into a DetectionOutput.
// A tensor that is not a whole number of rows yields an empty output and false.
func DetectionFromTensor(data []float32) (*DetectionOutput, bool) {
	if len(data)%DetectionColumns != 0 {
		return &DetectionOutput{}, false
	}

	n := len(data) / DetectionColumns
	out := &DetectionOutput{
		Boxes:  make([]float32, 0, 4*n),
		Scores: make([]float32, 0, n),
	}
	for i := 0; i < n; i++ {
		r := data[i*DetectionColumns : (i+1)*DetectionColumns]
		out.Boxes = append(out.Boxes, r[0], r[1], r[2], r[3])
		out.Scores = append(out.Scores, r[4])
	}
	return out, true
}

// RecognitionFromTensor splits a flat recognizer tensor into a RecognitionOutput.
// A tensor that is not a whole number of rows yields an empty output and false.
func RecognitionFromTensor(data []float32) (*RecognitionOutput, bool) {
	if len(data)%RecognitionColumns != 0 {
		return &RecognitionOutput{}, false
	}

	n := len(data) / RecognitionColumns
	out := &RecognitionOutput{
		Labels: make([]int32, 0, n),
		Boxes:  make([]float32, 0, 4*n),
		Scores: make([]float32, 0, n),
	}
	for i := 0; i < n; i++ {
		r := data[i*RecognitionColumns : (i+1)*RecognitionColumns]
		out.Labels = append(out.Labels, int32(r[0]))
		out.Boxes = append(out.Boxes, r[1], r[2], r[3], r[4])
		out.Scores = append(out.Scores, r[5])
	}
	return out, true
}
