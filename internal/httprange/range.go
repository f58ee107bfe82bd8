// Package httprange parses single-range HTTP Range headers for byte streams.
package httprange

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrUnsatisfiable marks a malformed or out-of-bounds range. Callers respond
// with 416 and a "bytes */<total>" hint.
var ErrUnsatisfiable = errors.New("httprange: unsatisfiable byte range")

var rangeRe = regexp.MustCompile(`(?i)^\s*bytes=(\d*)-(\d*)\s*$`)

// ByteRange is an inclusive byte window of a blob of Total bytes.
type ByteRange struct {
	Start   int64
	End     int64
	Total   int64
	Partial bool
}

// Length is the number of bytes covered by the range.
func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ContentRange renders the Content-Range header value for a 206 response.
func (r ByteRange) ContentRange() string {
	return "bytes " + strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10) +
		"/" + strconv.FormatInt(r.Total, 10)
}

// Parse resolves a Range header against a blob of total bytes. An empty
// header yields the full window with Partial=false. Supported forms are
// "bytes=a-b", "bytes=a-" and the suffix form "bytes=-n".
func Parse(header string, total int64) (ByteRange, error) {
	if header == "" {
		return ByteRange{Start: 0, End: total - 1, Total: total}, nil
	}

	m := rangeRe.FindStringSubmatch(header)
	if m == nil {
		return ByteRange{}, ErrUnsatisfiable
	}
	startRaw, endRaw := m[1], m[2]
	if startRaw == "" && endRaw == "" {
		return ByteRange{}, ErrUnsatisfiable
	}

	var start, end int64
	switch {
	case startRaw == "":
		// suffix form: last n bytes
		n, err := strconv.ParseInt(endRaw, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, ErrUnsatisfiable
		}
		start = total - n
		if start < 0 {
			start = 0
		}
		end = total - 1
	case endRaw == "":
		var err error
		start, err = strconv.ParseInt(startRaw, 10, 64)
		if err != nil {
			return ByteRange{}, ErrUnsatisfiable
		}
		end = total - 1
	default:
		var err error
		if start, err = strconv.ParseInt(startRaw, 10, 64); err != nil {
			return ByteRange{}, ErrUnsatisfiable
		}
		if end, err = strconv.ParseInt(endRaw, 10, 64); err != nil {
			return ByteRange{}, ErrUnsatisfiable
		}
	}

	if start < 0 || end < 0 || start > end || end >= total {
		return ByteRange{}, ErrUnsatisfiable
	}
	return ByteRange{Start: start, End: end, Total: total, Partial: true}, nil
}
