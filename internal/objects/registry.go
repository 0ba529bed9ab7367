package objects

import (
	"fmt"
	"sort"

	"mhyunpack/internal/game"
)

// Kind is the declared type name of a serialized object
type Kind string

const (
	KindAvatar      Kind = "Avatar"
	KindTexture2D   Kind = "Texture2D"
	KindBundleIndex Kind = "NapAssetBundleIndex"
)

type schema struct {
	// lowest engine version the schema covers
	since   game.Version
	variant func(game.Variant) bool
	decode  func(Cursor) (any, Cursor, error)
}

func erase[T any](fn func(Cursor) (T, Cursor, error)) func(Cursor) (any, Cursor, error) {
	return func(c Cursor) (any, Cursor, error) {
		v, c, err := fn(c)
		if err != nil {
			return nil, c, err
		}
		return v, c, nil
	}
}

var schemas = map[Kind]schema{
	KindAvatar:      {since: game.Version{4, 0}, decode: erase(DecodeAvatar)},
	KindTexture2D:   {since: game.Version{3, 0}, decode: erase(DecodeTexture2D)},
	KindBundleIndex: {since: game.Version{2019}, variant: game.Variant.IsZZZ, decode: erase(DecodeBundleIndex)},
}

// Kinds lists the registered object kinds
func Kinds() []Kind {
	out := make([]Kind, 0, len(schemas))
	for k := range schemas {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Supports reports whether kind has a schema for the cursor's version and variant
func Supports(kind Kind, c Cursor) error {
	s, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if len(c.version) == 0 || c.version.Compare(s.since) < 0 {
		return fmt.Errorf("%w: %s needs engine %s or newer, have %q", ErrUnsupportedVersion, kind, s.since, c.version.String())
	}
	if s.variant != nil && !s.variant(c.variant) {
		return fmt.Errorf("%w: %s is not serialized by %s", ErrUnsupportedVersion, kind, c.variant)
	}
	return nil
}

// Decode reads an object of the declared kind at the cursor
func Decode(kind Kind, c Cursor) (any, error) {
	if err := Supports(kind, c); err != nil {
		return nil, err
	}
	v, _, err := schemas[kind].decode(c)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return v, nil
}
