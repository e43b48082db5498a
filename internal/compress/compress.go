package compress

import (
	"errors"
	"fmt"
)

var ErrUnknownCompression = errors.New("unknown compression")

// Compress encodes document content before it is stored.
type Compress interface {
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// ByName returns the codec registered under name. An empty name selects Nop.
func ByName(name string) (Compress, error) {
	switch name {
	case "", NopName:
		return NewNop(), nil
	case GZipName:
		return NewGZip(), nil
	case BrotliName:
		return NewBrotli(), nil
	case LZ4Name:
		return NewLZ4(), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, name)
}
