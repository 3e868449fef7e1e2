package detector

// WireHand is the JSON shape of one hand as produced by MediaPipe, either by
// the Python service or by a browser-side detector. Points is a slice so
// that truncated results can be recognised and dropped.
type WireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// FromWire converts wire hands into HandLandmarks, keeping at most maxHands
// complete hands. Hands with fewer than NumLandmarks points are skipped.
// A maxHands of zero or less keeps every complete hand.
func FromWire(hands []WireHand, maxHands int) []HandLandmarks {
	var result []HandLandmarks
	for _, w := range hands {
		if maxHands > 0 && len(result) >= maxHands {
			break
		}
		h, ok := FromPoints(w.Points, w.Handedness, w.Score)
		if !ok {
			continue
		}
		result = append(result, h)
	}
	return result
}
