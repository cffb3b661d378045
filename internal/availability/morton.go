package availability

// Package-level Morton/quadtree bit math. The 3D Tiles implicit-tiling
// availability layout this project serializes uses Morton (Z-order)
// interleaving rather than the Hilbert curve the pack's PMTiles-shaped
// go-libtiles uses for its tile IDs (pm/spec/tileid.go), so the curve
// encoding itself is hand-rolled here; the surrounding shape — a small
// pure "prefix + curve position" index function feeding a buffer/bit
// offset calculation — follows that file's pattern directly.

// morton2D interleaves the bits of x and y: bit i of x lands at bit 2i,
// bit i of y lands at bit 2i+1 (§6 "Availability bit indexing").
func morton2D(x, y uint32) uint64 {
	return spreadBits(uint64(x)) | (spreadBits(uint64(y)) << 1)
}

// spreadBits inserts a zero bit between every bit of v (v must fit in the
// low 32 bits). Classic bit-interleave via masked shifts, avoiding a
// per-bit loop — the same shift-based idiom DESIGN NOTES §9 prescribes in
// place of floating point pow().
func spreadBits(v uint64) uint64 {
	v &= 0x00000000ffffffff
	v = (v | (v << 16)) & 0x0000ffff0000ffff
	v = (v | (v << 8)) & 0x00ff00ff00ff00ff
	v = (v | (v << 4)) & 0x0f0f0f0f0f0f0f0f
	v = (v | (v << 2)) & 0x3333333333333333
	v = (v | (v << 1)) & 0x5555555555555555
	return v
}

// morton2DDecode is the inverse of morton2D (§8 I6 round-trip property).
func morton2DDecode(m uint64) (x, y uint32) {
	return uint32(compactBits(m)), uint32(compactBits(m >> 1))
}

func compactBits(v uint64) uint64 {
	v &= 0x5555555555555555
	v = (v | (v >> 1)) & 0x3333333333333333
	v = (v | (v >> 2)) & 0x0f0f0f0f0f0f0f0f
	v = (v | (v >> 4)) & 0x00ff00ff00ff00ff
	v = (v | (v >> 8)) & 0x0000ffff0000ffff
	v = (v | (v >> 16)) & 0x00000000ffffffff
	return v
}

// pow4 computes 4^n via a left shift (DESIGN NOTES §9: replace pow(4,n)
// with 1<<(2n) to avoid float round-trip precision loss near int32 edges).
func pow4(n int) uint64 {
	return uint64(1) << uint(2*n)
}

// levelNodeOffset returns (4^level - 1)/3, the node count of all levels
// strictly above `level` in a quadtree — the constant prefix in the
// availability index formula.
func levelNodeOffset(level int) uint64 {
	return (pow4(level) - 1) / 3
}

// mortonIndex computes index(level, x, y) = (4^level-1)/3 + morton2D(x, y).
func mortonIndex(level int, x, y uint32) uint64 {
	return levelNodeOffset(level) + morton2D(x, y)
}
