package scheduler

// Partition assigns items to lanes round-robin: item i goes to lane
// i mod lanes, and each lane keeps input order. lanes <= 0 is treated as 1.
// No empty lanes are returned.
func Partition[T any](items []T, lanes int) [][]T {
	if lanes <= 0 {
		lanes = 1
	}
	if lanes > len(items) {
		lanes = len(items)
	}
	out := make([][]T, lanes)
	for i, it := range items {
		out[i%lanes] = append(out[i%lanes], it)
	}
	return out
}
