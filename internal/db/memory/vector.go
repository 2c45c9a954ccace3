package memory

import "math"

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }

// cosine returns the cosine similarity given precomputed magnitudes; zero vectors score 0.
func cosine(q []float32, qm float64, v []float32, vm float64) float64 {
	if qm == 0 || vm == 0 {
		return 0
	}
	s := dot(q, v) / (qm * vm)
	if math.IsNaN(s) {
		return 0
	}
	return s
}
