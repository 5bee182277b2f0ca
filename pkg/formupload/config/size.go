package config

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Byte size units
const (
	KiB ByteSize = 1 << 10
	MiB ByteSize = 1 << 20
)

// ByteSize is a byte count that reads human sizes such as "5MiB" or "512 kB"
type ByteSize int64

// SetValue parses a human readable size. It is called by cleanenv
func (b *ByteSize) SetValue(s string) error {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return fmt.Errorf("size %q is too large", s)
	}
	*b = ByteSize(n)
	return nil
}

// Int64 returns the size in bytes
func (b ByteSize) Int64() int64 {
	return int64(b)
}

func (b ByteSize) String() string {
	if b < 0 {
		return fmt.Sprintf("%d B", int64(b))
	}
	return humanize.IBytes(uint64(b))
}
