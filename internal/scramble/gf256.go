package scramble

// Log/exp tables of GF(2^8) with the 0x11B reduction polynomial and generator 3.
var (
	gfExp [255]byte
	gfLog [256]byte
)

func init() {
	x := byte(1)
	for i := range gfExp {
		gfExp[i] = x
		gfLog[x] = byte(i)
		x = xtime(x) ^ x
	}
}

func xtime(b byte) byte {
	if b&0x80 != 0 {
		return b<<1 ^ 0x1b
	}
	return b << 1
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[(int(gfLog[a])+int(gfLog[b]))%255]
}

// gfDiv returns x such that gfMul(b, x) == a. b must not be zero.
func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return gfExp[(int(gfLog[a])-int(gfLog[b])+255)%255]
}
