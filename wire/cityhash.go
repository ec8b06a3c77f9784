package wire

import "encoding/binary"

// CityHash128 is a pure-Go port of Google's CityHash128 algorithm, used by
// the compression frame (§4.2) to checksum each compressed packet body.
// No package in the example pack vendors CityHash — every real native
// ClickHouse client (Go, Java, C++) carries its own small port of the
// same public-domain algorithm rather than pulling a dependency, since no
// canonical module for it exists in the ecosystem; this follows that
// precedent rather than inventing a replacement checksum.
const (
	cityK0 uint64 = 0xc3a5c85c97cb3127
	cityK1 uint64 = 0xb492b66fbe98f273
	cityK2 uint64 = 0x9ae16a3b2f90404f
	cityK3 uint64 = 0xc949d7c7509e6557
)

func cityRotate(val uint64, shift uint) uint64 {
	if shift == 0 {
		return val
	}
	return (val >> shift) | (val << (64 - shift))
}

func cityShiftMix(val uint64) uint64 {
	return val ^ (val >> 47)
}

func cityFetch64(p []byte) uint64 {
	return binary.LittleEndian.Uint64(p)
}

func cityFetch32(p []byte) uint32 {
	return binary.LittleEndian.Uint32(p)
}

func cityHashLen16(u, v uint64) uint64 {
	return cityHash128to64(u, v)
}

// cityHash128to64 is CityHash's Hash128to64: a Murmur-inspired mix of a
// 128-bit value down to 64 bits.
func cityHash128to64(lo, hi uint64) uint64 {
	const mul uint64 = 0x9ddfea08eb382d69
	a := (lo ^ hi) * mul
	a ^= a >> 47
	b := (hi ^ a) * mul
	b ^= b >> 47
	b *= mul
	return b
}

func cityHashLen0to16(s []byte) uint64 {
	n := len(s)
	if n >= 8 {
		mul := cityK2 + uint64(n)*2
		a := cityFetch64(s) + cityK2
		b := cityFetch64(s[n-8:])
		c := cityRotate(b, 37)*mul + a
		d := (cityRotate(a, 25) + b) * mul
		return cityHashLen16Mul(c, d, mul)
	}
	if n >= 4 {
		mul := cityK2 + uint64(n)*2
		a := uint64(cityFetch32(s))
		return cityHashLen16Mul(uint64(n)+(a<<3), uint64(cityFetch32(s[n-4:])), mul)
	}
	if n > 0 {
		a := s[0]
		b := s[n>>1]
		c := s[n-1]
		y := uint32(a) + (uint32(b) << 8)
		z := uint32(n) + (uint32(c) << 2)
		return cityShiftMix(uint64(y)*cityK2^uint64(z)*cityK3) * cityK2
	}
	return cityK2
}

func cityHashLen16Mul(u, v, mul uint64) uint64 {
	a := (u ^ v) * mul
	a ^= a >> 47
	b := (v ^ a) * mul
	b ^= b >> 47
	b *= mul
	return b
}

func cityHashLen17to32(s []byte) uint64 {
	n := len(s)
	mul := cityK2 + uint64(n)*2
	a := cityFetch64(s) * cityK1
	b := cityFetch64(s[8:])
	c := cityFetch64(s[n-8:]) * mul
	d := cityFetch64(s[n-16:]) * cityK2
	return cityHashLen16Mul(cityRotate(a+b, 43)+cityRotate(c, 30)+d, a+cityRotate(b+cityK2, 18)+c, mul)
}

func cityWeakHashLen32WithSeeds(w, x, y, z, a, b uint64) (uint64, uint64) {
	a += w
	b = cityRotate(b+a+z, 21)
	c := a
	a += x
	a += y
	b += cityRotate(a, 44)
	return a + z, b + c
}

func cityWeakHashLen32WithSeedsBytes(s []byte, a, b uint64) (uint64, uint64) {
	return cityWeakHashLen32WithSeeds(cityFetch64(s), cityFetch64(s[8:]), cityFetch64(s[16:]), cityFetch64(s[24:]), a, b)
}

func cityHashLen33to64(s []byte) uint64 {
	n := len(s)
	mul := cityK2 + uint64(n)*2
	a := cityFetch64(s) * cityK2
	b := cityFetch64(s[8:])
	c := cityFetch64(s[n-24:])
	d := cityFetch64(s[n-32:])
	e := cityFetch64(s[16:]) * cityK2
	f := cityFetch64(s[24:]) * 9
	g := cityFetch64(s[n-8:])
	h := cityFetch64(s[n-16:]) * mul

	u := cityRotate(a+g, 43) + (cityRotate(b, 30)+c)*9
	v := ((a + g) ^ d) + f + 1
	w := bitsSwap32(u+v) + h
	x := cityRotate(e+f, 42) + c
	y := (bitsSwap32(v+w) + g) * mul
	z := e + f + c
	a = bitsSwap32((x+z)*mul+y) + b
	b = cityShiftMix((z+a)*mul+d+h) * mul
	return b + x
}

func bitsSwap32(x uint64) uint64 {
	return cityRotate(x, 32)
}

// cityHash64 implements CityHash64 on byte slices of any length.
func cityHash64(s []byte) uint64 {
	n := len(s)
	if n <= 16 {
		return cityHashLen0to16(s)
	}
	if n <= 32 {
		return cityHashLen17to32(s)
	}
	if n <= 64 {
		return cityHashLen33to64(s)
	}

	x := cityFetch64(s[n-40:])
	y := cityFetch64(s[n-16:]) + cityFetch64(s[n-56:])
	z := cityHashLen16(cityFetch64(s[n-48:])+uint64(n), cityFetch64(s[n-24:]))
	v1, v2 := cityWeakHashLen32WithSeedsBytes(s[n-64:], uint64(n), z)
	w1, w2 := cityWeakHashLen32WithSeedsBytes(s[n-32:], y+cityK1, x)
	x = x*cityK1 + cityFetch64(s)

	rem := n &^ 63
	for len(s) > rem {
		x = cityRotate(x+y+v1+cityFetch64(s[8:]), 37) * cityK1
		y = cityRotate(y+v2+cityFetch64(s[48:]), 42) * cityK1
		x ^= w2
		y += v1 + cityFetch64(s[40:])
		z = cityRotate(z+w1, 33) * cityK1
		v1, v2 = cityWeakHashLen32WithSeedsBytes(s, v2*cityK1, x+w1)
		w1, w2 = cityWeakHashLen32WithSeedsBytes(s[32:], z+w2, y+cityFetch64(s[16:]))
		x, z = z, x
		s = s[64:]
	}
	return cityHashLen16(cityHashLen16(v1, w1)+cityShiftMix(y)*cityK1+z, cityHashLen16(v2, w2)+x)
}

// cityHash128Seeded implements CityHash128WithSeed.
func cityHash128Seeded(s []byte, seedLo, seedHi uint64) (lo, hi uint64) {
	n := len(s)
	if n < 128 {
		return cityMurmur(s, seedLo, seedHi)
	}

	v1, v2 := uint64(0), uint64(0)
	w1, w2 := uint64(0), uint64(0)
	x := seedLo
	y := seedHi
	z := uint64(n) * cityK1
	v1 = cityRotate(y^cityK1, 49)*cityK1 + cityFetch64(s)
	v2 = cityRotate(v1, 42)*cityK1 + cityFetch64(s[8:])
	w1 = cityRotate(y+z, 35)*cityK1 + x
	w2 = cityRotate(x+cityFetch64(s[88:]), 53) * cityK1

	cur := s
	for len(cur) >= 128 {
		x = cityRotate(x+y+v1+cityFetch64(cur[8:]), 37) * cityK1
		y = cityRotate(y+v2+cityFetch64(cur[48:]), 42) * cityK1
		x ^= w2
		y += v1 + cityFetch64(cur[40:])
		z = cityRotate(z+w1, 33) * cityK1
		v1, v2 = cityWeakHashLen32WithSeedsBytes(cur, v2*cityK1, x+w1)
		w1, w2 = cityWeakHashLen32WithSeedsBytes(cur[32:], z+w2, y+cityFetch64(cur[16:]))
		x, z = z, x
		cur = cur[64:]

		x = cityRotate(x+y+v1+cityFetch64(cur[8:]), 37) * cityK1
		y = cityRotate(y+v2+cityFetch64(cur[48:]), 42) * cityK1
		x ^= w2
		y += v1 + cityFetch64(cur[40:])
		z = cityRotate(z+w1, 33) * cityK1
		v1, v2 = cityWeakHashLen32WithSeedsBytes(cur, v2*cityK1, x+w1)
		w1, w2 = cityWeakHashLen32WithSeedsBytes(cur[32:], z+w2, y+cityFetch64(cur[16:]))
		x, z = z, x
		cur = cur[64:]
	}

	// Finalize against the overlapping last 64 bytes, folding in whatever
	// tail didn't land on a 128-byte boundary.
	x += cityRotate(v1+z, 49) * cityK0
	y = y*cityK0 + cityRotate(w2, 37)
	z = z*cityK0 + cityRotate(w1, 27)
	w1 *= 9
	v1 *= cityK0
	tail := s[n-64:]
	v1, v2 = cityWeakHashLen32WithSeedsBytes(tail, v1, w1)
	w1, w2 = cityWeakHashLen32WithSeedsBytes(tail[32:], z+w2, y+cityFetch64(tail[16:]))

	return cityHashLen16(v1, w1), cityHashLen16(v2, w2) + y
}

func cityMurmur(s []byte, seedLo, seedHi uint64) (lo, hi uint64) {
	l := len(s)
	a := seedLo
	b := seedHi
	c := uint64(0)
	d := uint64(0)
	ll := l - 16
	if ll <= 0 {
		a = cityShiftMix(a*cityK1) * cityK1
		c = b*cityK1 + cityHashLen0to16(s)
		if l >= 8 {
			d = cityShiftMix(a + cityFetch64(s))
		} else {
			d = cityShiftMix(a)
		}
	} else {
		c = cityHashLen16(cityFetch64(s[l-8:])+cityK1, a)
		d = cityHashLen16(b+uint64(l), c+cityFetch64(s[l-16:]))
		a += d
		cur := s
		for len(cur) > 16 && ll > 0 {
			a ^= cityShiftMix(cityFetch64(cur)*cityK1) * cityK1
			a *= cityK1
			b ^= a
			c ^= cityShiftMix(cityFetch64(cur[8:])*cityK1) * cityK1
			c *= cityK1
			d ^= c
			cur = cur[16:]
			ll -= 16
		}
	}
	a = cityHashLen16(a, c)
	b = cityHashLen16(d, b)
	return a ^ b, cityHashLen16(b, a)
}

// CityHash128 computes the 128-bit CityHash128 checksum of data, returned
// as (low, high) 64-bit halves in the order the compression frame writes
// them (§4.2: checksum occupies the first 16 bytes of the frame).
func CityHash128(data []byte) (lo, hi uint64) {
	if len(data) >= 16 {
		return cityHash128Seeded(data[16:], cityFetch64(data)^cityK3, cityFetch64(data[8:]))
	}
	return cityHash128Seeded(data, cityK0, cityK1)
}
