package objects

// BundleIndex maps asset path hashes to the bundles and blocks that hold them
type BundleIndex struct {
	Name     string
	Assets   []IndexAssetRef
	Bundles  []IndexBundleRef
	Blocks   []IndexBlockRef
	Children []uint32
}

type IndexAssetRef struct {
	Bundle   uint32
	PathHash int64
}

type IndexBundleRef struct {
	BlockIndex         uint32
	BundleHashName     uint64
	BundleHash         uint64
	Offset             uint32
	ChildrenStartIndex uint32
	ChildrenEndIndex   uint32
	FileSize           uint32
}

type IndexBlockRef struct {
	BlockHashName uint64
	Location      uint8
}

// DecodeBundleIndex reads a NapAssetBundleIndex object
func DecodeBundleIndex(c Cursor) (*BundleIndex, Cursor, error) {
	idx := &BundleIndex{}
	idx.Name, c = c.AlignedString()
	idx.Assets, c = Array(c, readAssetRef)
	idx.Bundles, c = Array(c, readBundleRef)
	idx.Blocks, c = Array(c, readBlockRef)
	c = c.Align(4)
	idx.Children, c = Array(c, Cursor.U32)
	if c.err != nil {
		return nil, c, c.err
	}
	return idx, c, nil
}

// Bundle returns the bundle reference holding the asset with pathHash
func (idx *BundleIndex) Bundle(pathHash int64) (IndexBundleRef, bool) {
	for _, a := range idx.Assets {
		if a.PathHash == pathHash && int(a.Bundle) < len(idx.Bundles) {
			return idx.Bundles[a.Bundle], true
		}
	}
	return IndexBundleRef{}, false
}

func readAssetRef(c Cursor) (IndexAssetRef, Cursor) {
	var a IndexAssetRef
	a.Bundle, c = c.U32()
	a.PathHash, c = c.I64()
	return a, c
}

func readBundleRef(c Cursor) (IndexBundleRef, Cursor) {
	var b IndexBundleRef
	b.BlockIndex, c = c.U32()
	b.BundleHashName, c = c.U64()
	b.BundleHash, c = c.U64()
	b.Offset, c = c.U32()
	b.ChildrenStartIndex, c = c.U32()
	b.ChildrenEndIndex, c = c.U32()
	b.FileSize, c = c.U32()
	return b, c
}

func readBlockRef(c Cursor) (IndexBlockRef, Cursor) {
	var b IndexBlockRef
	b.BlockHashName, c = c.U64()
	b.Location, c = c.U8()
	return b, c
}
