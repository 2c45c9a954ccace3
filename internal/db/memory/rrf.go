package memory

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// rrfMax is the fused score of a document ranked first in both lists.
const rrfMax = 2.0 / (rrfK + 1)

// fuseRRF merges ranked lists via Reciprocal Rank Fusion, scaled to [0,1].
// score(d) = sum of 1/(k + rank_i(d)) for each ranking where d appears.
// The result is in document order; callers sort.
func fuseRRF(n int, lists ...[]scored) []scored {
	fused := make([]float64, n)
	present := make([]bool, n)
	for _, list := range lists {
		for rank, s := range list {
			fused[s.idx] += 1.0 / float64(rrfK+rank+1)
			present[s.idx] = true
		}
	}
	out := make([]scored, 0, n)
	for i, ok := range present {
		if ok {
			out = append(out, scored{idx: i, score: fused[i] / rrfMax})
		}
	}
	return out
}
