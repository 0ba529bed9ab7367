package container

import "sync"

// scratchPool holds block staging buffers shared by concurrent decoders
var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256<<10)
		return &b
	},
}

// getScratch returns a buffer of exactly n bytes; callers overwrite all of it before reading
func getScratch(n int) *[]byte {
	p := scratchPool.Get().(*[]byte)
	if cap(*p) < n {
		*p = make([]byte, n)
	}
	*p = (*p)[:n]
	return p
}

func putScratch(p *[]byte) {
	clear((*p)[:cap(*p)])
	*p = (*p)[:0]
	scratchPool.Put(p)
}
