package game

import (
	"fmt"
	"strings"
)

// Variant identifies the game family a container or object was produced for
type Variant int

const (
	Unity Variant = iota // plain engine build, no per-game quirks
	GI
	GIPack
	GICB1
	GICB2
	GICB3
	GICB3Pre
	BH3
	BH3Pre
	BH3PrePre
	SR
	SRCB2
	ZZZ
	ZZZCB1
	ZZZCB2
	HNACB1
	TOT
	ExAstris
)

// Traits are the per-variant switches consulted by the decoders.
// They are resolved once per session instead of comparing variant names at each call site.
type Traits struct {
	// NewEnvelopeCipher selects the "mhynewec" descramble path (AES-ECB + RC4 tail).
	NewEnvelopeCipher bool
	// GNFTexture enables the console texture fields on matching Texture2D type hashes.
	GNFTexture bool
	// PreProcessedTexture reads m_IsPreProcessed regardless of engine version.
	PreProcessedTexture bool
	// CompressedTextureFlag reads the m_IsCompressed flag and the external mip index.
	CompressedTextureFlag bool
	// RootMotionNextLevel reads m_UseNextLevelForRootMotionSkeleton on avatars.
	RootMotionNextLevel bool
	// TextureGroupSetting reads a texture group inside GLTextureSettings.
	TextureGroupSetting bool
}

type variantInfo struct {
	name        string
	displayName string
	traits      Traits
}

var zzzTraits = Traits{
	PreProcessedTexture:   true,
	CompressedTextureFlag: true,
	RootMotionNextLevel:   true,
}

var giTraits = Traits{GNFTexture: true}

var variants = map[Variant]variantInfo{
	Unity:     {"Unity", "Unity", Traits{}},
	GI:        {"GI", "Genshin Impact", giTraits},
	GIPack:    {"GI_Pack", "Genshin Impact (Pack)", giTraits},
	GICB1:     {"GI_CB1", "Genshin Impact CB1", giTraits},
	GICB2:     {"GI_CB2", "Genshin Impact CB2", giTraits},
	GICB3:     {"GI_CB3", "Genshin Impact CB3", giTraits},
	GICB3Pre:  {"GI_CB3Pre", "Genshin Impact CB3 Pre", giTraits},
	BH3:       {"BH3", "Honkai Impact 3rd", Traits{}},
	BH3Pre:    {"BH3Pre", "Honkai Impact 3rd (Pre)", Traits{}},
	BH3PrePre: {"BH3PrePre", "Honkai Impact 3rd (PrePre)", Traits{}},
	SR:        {"SR", "Honkai: Star Rail", Traits{}},
	SRCB2:     {"SR_CB2", "Honkai: Star Rail CB2", Traits{}},
	ZZZ:       {"ZZZ", "Zenless Zone Zero", withEnvelope(zzzTraits)},
	ZZZCB1:    {"ZZZ_CB1", "Zenless Zone Zero CB1", zzzTraits},
	ZZZCB2:    {"ZZZ_CB2", "Zenless Zone Zero CB2", withEnvelope(zzzTraits)},
	HNACB1:    {"HNA_CB1", "Nexus Anima CB1", Traits{}},
	TOT:       {"TOT", "Tears of Themis", Traits{}},
	ExAstris:  {"ExAstris", "ExAstris", Traits{TextureGroupSetting: true}},
}

func withEnvelope(t Traits) Traits {
	t.NewEnvelopeCipher = true
	return t
}

// Traits returns the switches for v. Unknown variants behave like Unity.
func (v Variant) Traits() Traits {
	return variants[v].traits
}

// String returns the short tag used in configuration files
func (v Variant) String() string {
	if info, ok := variants[v]; ok {
		return info.name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// DisplayName returns the human readable game name
func (v Variant) DisplayName() string {
	if info, ok := variants[v]; ok {
		return info.displayName
	}
	return v.String()
}

// IsGI reports whether v belongs to the Genshin Impact family
func (v Variant) IsGI() bool {
	return v >= GI && v <= GICB3Pre
}

// IsZZZ reports whether v belongs to the Zenless Zone Zero family
func (v Variant) IsZZZ() bool {
	return v >= ZZZ && v <= ZZZCB2
}

// ParseVariant resolves a short tag (case-insensitive, "-" and "_" are interchangeable)
func ParseVariant(name string) (Variant, error) {
	want := normalize(name)
	if want == "" {
		return Unity, nil
	}
	for v, info := range variants {
		if normalize(info.name) == want {
			return v, nil
		}
	}
	return Unity, fmt.Errorf("unknown game variant %q", name)
}

// Variants lists every known variant in declaration order
func Variants() []Variant {
	out := make([]Variant, 0, len(variants))
	for v := Unity; v <= ExAstris; v++ {
		out = append(out, v)
	}
	return out
}

func normalize(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}
