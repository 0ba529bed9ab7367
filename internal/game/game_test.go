package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("2019.4.30f1")
	require.NoError(t, err)
	require.Equal(t, Version{2019, 4, 30, 1}, v)

	v, err = ParseVersion("5.3.4p2")
	require.NoError(t, err)
	require.Equal(t, 5, v.Major())
	require.Equal(t, 3, v.Minor())

	_, err = ParseVersion("")
	require.Error(t, err)
	_, err = ParseVersion("abc")
	require.Error(t, err)
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{Version{5, 4, 0, 0}, Version{5, 4}, 0},
		{Version{5, 3, 0, 0}, Version{5, 4}, -1},
		{Version{2019, 4, 0, 0}, Version{2018, 4, 0, 0}, 1},
		{Version{2018, 2, 1}, Version{2018, 2}, 1},
		{nil, Version{0}, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.a.Compare(tt.b), "%v vs %v", tt.a, tt.b)
	}

	require.True(t, Version{5, 4, 0, 0}.AtLeast(5, 4))
	require.False(t, Version{5, 3, 0, 0}.AtLeast(5, 4))
	require.True(t, Version{2018, 1, 9}.Below(2018, 2))
	require.Equal(t, "2019.4.0.0", Version{2019, 4, 0, 0}.String())
}

func TestVariantTraits(t *testing.T) {
	require.True(t, ZZZ.Traits().NewEnvelopeCipher)
	require.True(t, ZZZCB2.Traits().NewEnvelopeCipher)
	require.False(t, ZZZCB1.Traits().NewEnvelopeCipher)
	require.True(t, ZZZCB1.Traits().RootMotionNextLevel)
	require.True(t, GI.Traits().GNFTexture)
	require.Equal(t, Traits{}, Unity.Traits())
	require.True(t, ExAstris.Traits().TextureGroupSetting)

	require.True(t, GICB3Pre.IsGI())
	require.False(t, BH3.IsGI())
	require.True(t, ZZZCB2.IsZZZ())
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("zzz-cb2")
	require.NoError(t, err)
	require.Equal(t, ZZZCB2, v)

	v, err = ParseVariant("")
	require.NoError(t, err)
	require.Equal(t, Unity, v)

	_, err = ParseVariant("nope")
	require.Error(t, err)

	for _, v := range Variants() {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}
