package objects

import (
	"fmt"
	"slices"
)

// Serialized type hashes that switch on console texture fields
const (
	gnfTypeHash    = "1D52BB98AA5F54C67C22C39E8B2E400F"
	extMipTypeHash = "5390A985F58D5524F95DB240E8789704"
)

// TextureFormat is the pixel encoding of a texture
type TextureFormat int32

const (
	Alpha8             TextureFormat = 1
	ARGB4444           TextureFormat = 2
	RGB24              TextureFormat = 3
	RGBA32             TextureFormat = 4
	ARGB32             TextureFormat = 5
	RGB565             TextureFormat = 7
	R16Alt             TextureFormat = 8
	R16                TextureFormat = 9
	DXT1               TextureFormat = 10
	DXT3               TextureFormat = 11
	DXT5               TextureFormat = 12
	RGBA4444           TextureFormat = 13
	BGRA32             TextureFormat = 14
	RHalf              TextureFormat = 15
	RGHalf             TextureFormat = 16
	RGBAHalf           TextureFormat = 17
	RFloat             TextureFormat = 18
	RGFloat            TextureFormat = 19
	RGBAFloat          TextureFormat = 20
	YUY2               TextureFormat = 21
	RGB9e5Float        TextureFormat = 22
	BC6H               TextureFormat = 24
	BC7                TextureFormat = 25
	BC4                TextureFormat = 26
	BC5                TextureFormat = 27
	DXT1Crunched       TextureFormat = 28
	DXT5Crunched       TextureFormat = 29
	PVRTCRGB2          TextureFormat = 30
	PVRTCRGBA2         TextureFormat = 31
	PVRTCRGB4          TextureFormat = 32
	PVRTCRGBA4         TextureFormat = 33
	ETCRGB4            TextureFormat = 34
	ATCRGB4            TextureFormat = 35
	ATCRGBA8           TextureFormat = 36
	EACR               TextureFormat = 41
	EACRSigned         TextureFormat = 42
	EACRG              TextureFormat = 43
	EACRGSigned        TextureFormat = 44
	ETC2RGB            TextureFormat = 45
	ETC2RGBA1          TextureFormat = 46
	ETC2RGBA8          TextureFormat = 47
	ASTC4x4            TextureFormat = 48
	ASTC5x5            TextureFormat = 49
	ASTC6x6            TextureFormat = 50
	ASTC8x8            TextureFormat = 51
	ASTC10x10          TextureFormat = 52
	ASTC12x12          TextureFormat = 53
	RG16               TextureFormat = 62
	R8                 TextureFormat = 63
	ETCRGB4Crunched    TextureFormat = 64
	ETC2RGBA8Crunched  TextureFormat = 65
	ASTCHDR4x4         TextureFormat = 66
	ASTCHDR5x5         TextureFormat = 67
	ASTCHDR6x6         TextureFormat = 68
	ASTCHDR8x8         TextureFormat = 69
	ASTCHDR10x10       TextureFormat = 70
	ASTCHDR12x12       TextureFormat = 71
	RG32               TextureFormat = 72
	RGB48              TextureFormat = 73
	RGBA64             TextureFormat = 74
	R8Signed           TextureFormat = 75
	RG16Signed         TextureFormat = 76
	RGB24Signed        TextureFormat = 77
	RGBA32Signed       TextureFormat = 78
	R16Signed          TextureFormat = 79
	RG32Signed         TextureFormat = 80
	RGB48Signed        TextureFormat = 81
	RGBA64Signed       TextureFormat = 82
)

var textureFormatNames = map[TextureFormat]string{
	Alpha8: "Alpha8", ARGB4444: "ARGB4444", RGB24: "RGB24", RGBA32: "RGBA32", ARGB32: "ARGB32",
	RGB565: "RGB565", R16: "R16", DXT1: "DXT1", DXT5: "DXT5", RGBA4444: "RGBA4444", BGRA32: "BGRA32",
	RHalf: "RHalf", RGHalf: "RGHalf", RGBAHalf: "RGBAHalf", RFloat: "RFloat", RGFloat: "RGFloat",
	RGBAFloat: "RGBAFloat", BC4: "BC4", BC5: "BC5", BC6H: "BC6H", BC7: "BC7",
	ETC2RGB: "ETC2_RGB", ETC2RGBA8: "ETC2_RGBA8", ASTC4x4: "ASTC_4x4", ASTC6x6: "ASTC_6x6",
	ASTC8x8: "ASTC_8x8", R8: "R8", RG16: "RG16",
}

func (f TextureFormat) String() string {
	if s, ok := textureFormatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("TextureFormat(%d)", int32(f))
}

// StreamingInfo points at pixel data stored in a side-car resource file
type StreamingInfo struct {
	Offset int64
	Size   uint32
	Path   string
}

type GLTextureSettings struct {
	FilterMode   int32
	Aniso        int32
	MipBias      float32
	TextureGroup int32
	WrapU        int32
	WrapV        int32
	WrapW        int32
}

// Texture2D is a 2D texture. Its pixels are either inline (ImageData) or in a
// streaming resource (StreamData), depending only on the declared inline size.
type Texture2D struct {
	Name string

	ForcedFallbackFormat   int32
	DownscaleFallback      bool
	IsAlphaChannelOptional bool

	Width, Height     int32
	CompleteImageSize int32
	MipsStripped      int32
	Format            TextureFormat
	MipMap            bool
	MipCount          int32

	IsReadable               bool
	IsGNFTexture             bool
	IsPreProcessed           bool
	IgnoreMasterTextureLimit bool
	MipmapLimitGroupName     string
	ReadAllowed              bool
	StreamingMipmaps         bool
	TextureGroup             int32
	StreamingMipmapsPriority int32
	IsCompressed             bool

	ImageCount       int32
	TextureDimension int32
	Settings         GLTextureSettings
	LightmapFormat   int32
	ColorSpace       int32
	PlatformBlob     []byte

	ExternalMipRelativeOffset uint32
	ExternalMipRelativeIndex  uint32

	// ImageDataSize is the declared inline size; zero selects StreamData
	ImageDataSize int32
	ImageData     []byte
	StreamData    *StreamingInfo
}

// Streamed reports whether the pixels live outside the object
func (t *Texture2D) Streamed() bool {
	return t.StreamData != nil && t.StreamData.Path != ""
}

func (c Cursor) hasTypeHash(hashes ...string) bool {
	return slices.Contains(hashes, c.typeHash)
}

func (c Cursor) gnf() bool {
	return c.variant.Traits().GNFTexture && c.hasTypeHash(gnfTypeHash)
}

// DecodeTexture2D reads a Texture2D object
func DecodeTexture2D(c Cursor) (*Texture2D, Cursor, error) {
	t := &Texture2D{}
	v := c.version
	traits := c.variant.Traits()

	t.Name, c = c.AlignedString()
	if v.AtLeast(2017, 3) {
		t.ForcedFallbackFormat, c = c.I32()
		t.DownscaleFallback, c = c.Bool()
		if v.AtLeast(2020, 2) {
			t.IsAlphaChannelOptional, c = c.Bool()
		}
		c = c.Align(4)
	}

	t.Width, c = c.I32()
	t.Height, c = c.I32()
	t.CompleteImageSize, c = c.I32()
	if v.AtLeast(2020) {
		t.MipsStripped, c = c.I32()
	}
	var format int32
	format, c = c.I32()
	t.Format = TextureFormat(format)
	if v.Below(5, 2) {
		t.MipMap, c = c.Bool()
	} else {
		t.MipCount, c = c.I32()
	}
	if v.AtLeast(2, 6) {
		t.IsReadable, c = c.Bool()
		if c.gnf() {
			t.IsGNFTexture, c = c.Bool()
		}
	}
	if v.AtLeast(2020) || traits.PreProcessedTexture {
		t.IsPreProcessed, c = c.Bool()
	}
	if v.AtLeast(2019, 3) {
		t.IgnoreMasterTextureLimit, c = c.Bool()
	}
	if v.AtLeast(2022, 2) {
		c = c.Align(4)
		t.MipmapLimitGroupName, c = c.AlignedString()
	}
	if v.AtLeast(3) && v.Below(5, 5) {
		t.ReadAllowed, c = c.Bool()
	}
	if v.AtLeast(2018, 2) {
		t.StreamingMipmaps, c = c.Bool()
	}
	c = c.Align(4)
	if c.gnf() {
		t.TextureGroup, c = c.I32()
	}
	if v.AtLeast(2018, 2) {
		t.StreamingMipmapsPriority, c = c.I32()
	}
	if traits.CompressedTextureFlag {
		t.IsCompressed, c = c.Bool()
		c = c.Align(4)
	}

	t.ImageCount, c = c.I32()
	t.TextureDimension, c = c.I32()
	t.Settings, c = readGLTextureSettings(c)
	if v.AtLeast(3) {
		t.LightmapFormat, c = c.I32()
	}
	if v.AtLeast(3, 5) {
		t.ColorSpace, c = c.I32()
	}
	if v.AtLeast(2020, 2) {
		t.PlatformBlob, c = c.Bytes()
		c = c.Align(4)
	}

	t.ImageDataSize, c = c.I32()
	switch {
	case t.ImageDataSize != 0:
		if t.ImageDataSize < 0 {
			return nil, c, fmt.Errorf("%w: negative image data size %d", ErrShortRead, t.ImageDataSize)
		}
		var data []byte
		data, c = c.take(int(t.ImageDataSize))
		t.ImageData = append([]byte(nil), data...)
	case v.AtLeast(5, 3):
		if traits.GNFTexture && c.hasTypeHash(gnfTypeHash, extMipTypeHash) {
			t.ExternalMipRelativeOffset, c = c.U32()
		}
		if traits.CompressedTextureFlag {
			t.ExternalMipRelativeIndex, c = c.U32()
		}
		var si StreamingInfo
		si, c = readStreamingInfo(c)
		t.StreamData = &si
	}

	if c.err != nil {
		return nil, c, c.err
	}
	return t, c, nil
}

func readGLTextureSettings(c Cursor) (GLTextureSettings, Cursor) {
	var s GLTextureSettings
	s.FilterMode, c = c.I32()
	s.Aniso, c = c.I32()
	s.MipBias, c = c.F32()
	if c.variant.Traits().TextureGroupSetting {
		s.TextureGroup, c = c.I32()
	}
	s.WrapU, c = c.I32()
	if c.version.AtLeast(2017) {
		s.WrapV, c = c.I32()
		s.WrapW, c = c.I32()
	}
	return s, c
}

func readStreamingInfo(c Cursor) (StreamingInfo, Cursor) {
	var si StreamingInfo
	if c.version.AtLeast(2020) {
		si.Offset, c = c.I64()
	} else {
		var off uint32
		off, c = c.U32()
		si.Offset = int64(off)
	}
	si.Size, c = c.U32()
	si.Path, c = c.AlignedString()
	return si, c
}
