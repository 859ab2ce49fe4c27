// Package playback serves cached media artifacts from the local data
// directory with HTTP byte-range support, so repeated display requests do
// not re-hit the analysis backend.
package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte span within a resource of known size.
type ByteRange struct {
	Start int64
	End   int64
}

func (b ByteRange) Length() int64 {
	return b.End - b.Start + 1
}

func (b ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", b.Start, b.End, size)
}

// ParseByteRange interprets a Range request header against a resource of the
// given size. ok is false when the header is absent. Only the first spec of a
// multi-range header is honored; ends past the resource are clamped.
func ParseByteRange(header string, size int64) (ByteRange, bool, error) {
	if header == "" {
		return ByteRange{}, false, nil
	}
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return ByteRange{}, false, ErrInvalidRange
	}
	if first, _, multi := strings.Cut(spec, ","); multi {
		spec = strings.TrimSpace(first)
	}

	startPart, endPart, found := strings.Cut(spec, "-")
	if !found {
		return ByteRange{}, false, ErrInvalidRange
	}

	var br ByteRange
	if startPart == "" {
		// Suffix form: the last N bytes.
		suffix, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || suffix <= 0 {
			return ByteRange{}, false, ErrInvalidRange
		}
		br.Start = max(size-suffix, 0)
		br.End = size - 1
	} else {
		start, err := strconv.ParseInt(startPart, 10, 64)
		if err != nil || start < 0 {
			return ByteRange{}, false, ErrInvalidRange
		}
		br.Start = start
		if endPart == "" {
			br.End = size - 1
		} else {
			end, err := strconv.ParseInt(endPart, 10, 64)
			if err != nil {
				return ByteRange{}, false, ErrInvalidRange
			}
			br.End = min(end, size-1)
		}
	}

	if br.Start > br.End || br.Start >= size {
		return ByteRange{}, false, ErrUnsatisfiable
	}
	return br, true, nil
}
