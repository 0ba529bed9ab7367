package container

import "os"

// Open decodes the container file at path
func Open(path string, cfg Config) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErr("open container", err)
	}
	defer f.Close()
	return Decode(f, path, cfg)
}
