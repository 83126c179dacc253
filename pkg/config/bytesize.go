package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a byte count that knows how to parse human-readable
// suffixes ("64Mi", "1GB", "512k") the way operators write them in a
// config file or environment variable.
type ByteSize uint64

const (
	KiB ByteSize = 1 << (10 * (iota + 1))
	MiB
	GiB
	TiB
)

var unitSuffixes = []struct {
	suffix string
	factor ByteSize
}{
	{"TiB", TiB}, {"Ti", TiB},
	{"GiB", GiB}, {"Gi", GiB}, {"GB", GiB}, {"G", GiB},
	{"MiB", MiB}, {"Mi", MiB}, {"MB", MiB}, {"M", MiB},
	{"KiB", KiB}, {"Ki", KiB}, {"KB", KiB}, {"K", KiB}, {"k", KiB},
	{"B", 1},
}

// ParseByteSize parses strings like "1Gi", "500Mi", "100MB", "4096".
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("bytesize: empty value")
	}

	for _, u := range unitSuffixes {
		if strings.HasSuffix(s, u.suffix) {
			numPart := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			if numPart == "" {
				continue
			}
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return 0, fmt.Errorf("bytesize: invalid numeric part %q in %q: %w", numPart, s, err)
			}
			return ByteSize(n * float64(u.factor)), nil
		}
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: cannot parse %q: %w", s, err)
	}
	return ByteSize(n), nil
}

func (b ByteSize) String() string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.2fTiB", float64(b)/float64(TiB))
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", uint64(b))
	}
}
