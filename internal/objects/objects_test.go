package objects

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"mhyunpack/internal/container"
	"mhyunpack/internal/game"
)

// le builds little-endian object fixtures
type le []byte

func (b le) u8(v uint8) le    { return append(b, v) }
func (b le) u32(v uint32) le  { return binary.LittleEndian.AppendUint32(b, v) }
func (b le) i32(v int32) le   { return b.u32(uint32(v)) }
func (b le) u64(v uint64) le  { return binary.LittleEndian.AppendUint64(b, v) }
func (b le) i64(v int64) le   { return b.u64(uint64(v)) }
func (b le) f32(v float32) le { return b.u32(math.Float32bits(v)) }

func (b le) boolean(v bool) le {
	if v {
		return b.u8(1)
	}
	return b.u8(0)
}

func (b le) align() le {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func (b le) str(s string) le {
	b = b.i32(int32(len(s)))
	return append(b, s...).align()
}

func (b le) zeros(n int) le {
	for range n {
		b = b.i32(0)
	}
	return b
}

func (b le) floats(fs ...float32) le {
	for _, f := range fs {
		b = b.f32(f)
	}
	return b
}

func TestAlignedString(t *testing.T) {
	buf := le(nil).str("abcde").u32(7)
	require.Len(t, buf, 16)

	c := NewCursor(buf, game.Version{2019}, game.Unity)
	s, c := c.AlignedString()
	require.Equal(t, "abcde", s)
	require.Equal(t, 12, c.Pos())

	v, c := c.U32()
	require.NoError(t, c.Err())
	require.EqualValues(t, 7, v)
	require.Zero(t, c.Remaining())
}

func TestShortReadIsSticky(t *testing.T) {
	c := NewCursor([]byte{1, 2}, game.Version{2019}, game.Unity)
	_, c = c.U32()
	require.ErrorIs(t, c.Err(), ErrShortRead)
	require.ErrorIs(t, c.Err(), container.ErrFormat)

	v, c := c.U8()
	require.Zero(t, v)
	require.Zero(t, c.Pos())
	require.ErrorIs(t, c.Err(), ErrShortRead)
}

func TestArrayRejectsImpossibleCount(t *testing.T) {
	c := NewCursor(le(nil).i32(1000).u32(1), game.Version{2019}, game.Unity)
	out, c := Array(c, Cursor.U32)
	require.Nil(t, out)
	require.ErrorIs(t, c.Err(), ErrShortRead)
}

func TestLimitVectorWidth(t *testing.T) {
	tests := []struct {
		version game.Version
		width   int
	}{
		{game.Version{5, 4, 0, 0}, 3},
		{game.Version{2019, 4}, 3},
		{game.Version{5, 3, 0, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			buf := le(nil).floats(1, 2, 3, 4, 5, 6, 7, 8)
			l, c := readLimit(NewCursor(buf, tt.version, game.Unity))
			require.NoError(t, c.Err())
			require.Equal(t, tt.width, l.Min.N)
			require.Equal(t, 2*tt.width*4, c.Pos())
			require.Equal(t, Vector3{1, 2, 3}, l.Min.Vector3())
			require.Equal(t, float32(tt.width+1), l.Max.V[0])
		})
	}
}

// avatarBytes encodes an avatar with empty skeletons for versions from 5.4 on
func avatarBytes(variant game.Variant, withDescription bool) []byte {
	xform := func(b le) le { return b.floats(0, 0, 0, 0, 0, 0, 1, 1, 1, 1) }

	b := le(nil).str("hero").u32(512)
	b = b.zeros(3 + 1 + 1 + 1) // skeleton, pose, default pose, name ids
	b = xform(b)               // human root
	b = b.zeros(3 + 1 + 1 + 1 + 1 + 1)
	b = b.floats(1, 0.5, 0.5, 0.5, 0.5, 0.05, 0.05, 0.1)
	b = b.boolean(true).boolean(false).boolean(true).align()
	b = b.zeros(2) // skeleton index, reverse index
	b = b.i32(-1)  // root motion bone
	b = xform(b)   // root motion x
	b = b.zeros(5) // root motion skeleton, pose, index array
	if variant.Traits().RootMotionNextLevel {
		b = b.boolean(true)
	}
	b = b.align()
	b = b.i32(2).u32(0).str("").u32(0xdeadbeef).str("Root/Hips")
	if withDescription {
		b = b.i32(1).str("mixamo:Hips").str("Hips").
			floats(-1, -1, -1, 1, 1, 1, 0, 0, 0, 0.3).boolean(true).align()
		b = b.zeros(1)
		b = b.floats(0.5, 0.5, 0.5, 0.5, 0.05, 0.05, 0, 1)
		b = b.str("Root").boolean(false).boolean(true).boolean(true).align()
	}
	return b
}

func TestDecodeAvatarHumanDescription(t *testing.T) {
	c := NewCursor(avatarBytes(game.Unity, true), game.Version{2019, 4, 30}, game.Unity)
	a, c, err := DecodeAvatar(c)
	require.NoError(t, err)
	require.Zero(t, c.Remaining())

	require.Equal(t, "hero", a.Name)
	require.EqualValues(t, 512, a.AvatarSize)
	require.EqualValues(t, -1, a.Constant.RootMotionBoneIndex)
	require.Equal(t, 3, a.Constant.RootMotionBoneX.T.N)
	require.True(t, a.Constant.Human.HasLeftHand)
	require.True(t, a.Constant.Human.HasTDoF)
	require.NotNil(t, a.Constant.DefaultPose)

	path, ok := a.FindBonePath(0xdeadbeef)
	require.True(t, ok)
	require.Equal(t, "Root/Hips", path)

	require.NotNil(t, a.HumanDescription)
	require.Len(t, a.HumanDescription.Human, 1)
	require.Equal(t, "Hips", a.HumanDescription.Human[0].HumanName)
	require.True(t, a.HumanDescription.Human[0].Limit.Modified)
	require.Equal(t, "Root", a.HumanDescription.RootMotionBoneName)
	require.True(t, a.HumanDescription.SkeletonHasParents)
}

func TestDecodeAvatarWithoutHumanDescription(t *testing.T) {
	c := NewCursor(avatarBytes(game.Unity, false), game.Version{2018, 4}, game.Unity)
	a, c, err := DecodeAvatar(c)
	require.NoError(t, err)
	require.Zero(t, c.Remaining())
	require.Nil(t, a.HumanDescription)
	require.Len(t, a.TOS, 2)
}

func TestDecodeAvatarRootMotionNextLevel(t *testing.T) {
	c := NewCursor(avatarBytes(game.ZZZ, true), game.Version{2019, 4}, game.ZZZ)
	a, c, err := DecodeAvatar(c)
	require.NoError(t, err)
	require.Zero(t, c.Remaining())
	require.True(t, a.Constant.UseNextLevelForRootMotion)
}

func TestDecodeAvatarTruncated(t *testing.T) {
	buf := avatarBytes(game.Unity, true)
	_, _, err := DecodeAvatar(NewCursor(buf[:len(buf)-9], game.Version{2019, 4}, game.Unity))
	require.ErrorIs(t, err, ErrShortRead)
}

// textureBytes encodes a 2019.4 texture; compressed adds the fields ZZZ builds carry
func textureBytes(compressed bool, data []byte, stream string) []byte {
	b := le(nil).str("tex").i32(0).boolean(false).align()
	b = b.i32(4).i32(2).i32(32).i32(int32(RGBA32)).i32(1)
	b = b.boolean(true) // readable
	if compressed {
		b = b.boolean(true) // preprocessed
	}
	b = b.boolean(false).boolean(true).align()
	b = b.i32(0) // streaming priority
	if compressed {
		b = b.boolean(true).align()
	}
	b = b.i32(1).i32(2)
	b = b.i32(1).i32(1).f32(0).i32(1).i32(1).i32(0)
	b = b.i32(6).i32(1)
	b = b.i32(int32(len(data)))
	if len(data) > 0 {
		return append(b, data...)
	}
	if compressed {
		b = b.u32(3)
	}
	return b.u32(4096).u32(32).str(stream)
}

func TestDecodeTextureInline(t *testing.T) {
	pixels := make([]byte, 32)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	c := NewCursor(textureBytes(false, pixels, ""), game.Version{2019, 4}, game.Unity)
	tex, c, err := DecodeTexture2D(c)
	require.NoError(t, err)
	require.Zero(t, c.Remaining())

	require.Equal(t, "tex", tex.Name)
	require.EqualValues(t, 4, tex.Width)
	require.Equal(t, RGBA32, tex.Format)
	require.Equal(t, "RGBA32", tex.Format.String())
	require.True(t, tex.IsReadable)
	require.True(t, tex.StreamingMipmaps)
	require.EqualValues(t, 1, tex.Settings.WrapV)
	require.Equal(t, pixels, tex.ImageData)
	require.False(t, tex.Streamed())
}

func TestDecodeTextureStreamed(t *testing.T) {
	c := NewCursor(textureBytes(true, nil, "archive:/CAB-1/CAB-1.resS"), game.Version{2019, 4}, game.ZZZ)
	tex, c, err := DecodeTexture2D(c)
	require.NoError(t, err)
	require.Zero(t, c.Remaining())

	require.True(t, tex.IsPreProcessed)
	require.True(t, tex.IsCompressed)
	require.EqualValues(t, 3, tex.ExternalMipRelativeIndex)
	require.Empty(t, tex.ImageData)
	require.True(t, tex.Streamed())
	require.Equal(t, StreamingInfo{Offset: 4096, Size: 32, Path: "archive:/CAB-1/CAB-1.resS"}, *tex.StreamData)
}

func TestTextureFormatString(t *testing.T) {
	require.Equal(t, "BC7", BC7.String())
	require.Equal(t, "TextureFormat(6)", TextureFormat(6).String())
}

func TestDecodeBundleIndex(t *testing.T) {
	b := le(nil).str("index")
	b = b.i32(1).u32(0).i64(-42)
	b = b.i32(1).u32(0).u64(0xaa).u64(0xbb).u32(128).u32(0).u32(1).u32(4096)
	b = b.i32(1).u64(0xcc).u8(2)
	b = b.align().i32(1).u32(9)

	c := NewCursor(b, game.Version{2019, 4}, game.ZZZ)
	idx, c, err := DecodeBundleIndex(c)
	require.NoError(t, err)
	require.Zero(t, c.Remaining())
	require.Equal(t, []uint32{9}, idx.Children)
	require.EqualValues(t, 2, idx.Blocks[0].Location)

	ref, ok := idx.Bundle(-42)
	require.True(t, ok)
	require.EqualValues(t, 4096, ref.FileSize)
	_, ok = idx.Bundle(1)
	require.False(t, ok)
}

func TestRegistry(t *testing.T) {
	require.Equal(t, []Kind{KindAvatar, KindBundleIndex, KindTexture2D}, Kinds())

	buf := avatarBytes(game.Unity, true)
	v, err := Decode(KindAvatar, NewCursor(buf, game.Version{2019, 4}, game.Unity))
	require.NoError(t, err)
	require.IsType(t, &Avatar{}, v)

	_, err = Decode("MonoBehaviour", NewCursor(buf, game.Version{2019, 4}, game.Unity))
	require.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = Decode(KindAvatar, NewCursor(buf, nil, game.Unity))
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Decode(KindAvatar, NewCursor(buf, game.Version{3, 5}, game.Unity))
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Decode(KindBundleIndex, NewCursor(buf, game.Version{2019, 4}, game.GI))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}
