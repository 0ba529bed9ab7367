package settings

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"mhyunpack/internal/scramble"
)

// LoadKeySet reads a keyset file. The format follows the extension (yaml, json or toml);
// every field is a hex string and whitespace inside it is ignored.
//
//	rc4_seed: "29 23 be 84 ..."   # optional, defaults to the shared mhy seed
//	sbox: "..."
//	shift_row: "..."
//	key: "..."
//	mul: "..."
//	aes_sbox: "..."               # Blb3 and WMV only
//	aes_shift: "..."
//	xor_key: "..."                # WMV only
func LoadKeySet(path string) (scramble.KeySet, error) {
	if path == "" {
		return scramble.KeySet{}, fmt.Errorf("%w: no keyset file configured", scramble.ErrKeySet)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return scramble.KeySet{}, fmt.Errorf("failed to read keyset %s: %w", path, err)
	}

	fields := make(map[string]string, len(v.AllKeys()))
	for _, key := range v.AllKeys() {
		s, err := cast.ToStringE(v.Get(key))
		if err != nil {
			return scramble.KeySet{}, fmt.Errorf("%w: field %s: %w", scramble.ErrKeySet, key, err)
		}
		fields[key] = s
	}

	keys, err := scramble.KeySetFromHex(fields)
	if err != nil {
		return scramble.KeySet{}, fmt.Errorf("keyset %s: %w", path, err)
	}
	keys = keys.WithDefaults()
	if err := keys.Validate(); err != nil {
		return scramble.KeySet{}, fmt.Errorf("keyset %s: %w", path, err)
	}
	return keys, nil
}

// LoadEngine reads a keyset file and builds the cipher engine for it
func LoadEngine(path string) (*scramble.Engine, error) {
	keys, err := LoadKeySet(path)
	if err != nil {
		return nil, err
	}
	return scramble.NewEngine(keys)
}
