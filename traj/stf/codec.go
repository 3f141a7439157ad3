/*
 * codec.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package stf

import (
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	lzwLitwidth = 8
	defaultPrec = 2
)

// codec is a compression method, chosen by the last letter of the file name.
type codec struct {
	reader func(io.Reader) (io.ReadCloser, error)
	writer func(w io.Writer, level int) (io.WriteCloser, error)
}

// zstdReadCloser adapts a zstd.Decoder, whose Close returns nothing.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

var zstdCodec = codec{
	reader: func(r io.Reader) (io.ReadCloser, error) {
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	},
	writer: func(w io.Writer, _ int) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	},
}

var codecs = map[byte]codec{
	'l': {
		reader: func(r io.Reader) (io.ReadCloser, error) { return lzw.NewReader(r, lzw.MSB, lzwLitwidth), nil },
		writer: func(w io.Writer, _ int) (io.WriteCloser, error) { return lzw.NewWriter(w, lzw.MSB, lzwLitwidth), nil },
	},
	'z': {
		reader: func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) },
		writer: func(w io.Writer, level int) (io.WriteCloser, error) { return gzip.NewWriterLevel(w, level) },
	},
	'r': {
		reader: func(r io.Reader) (io.ReadCloser, error) { return flate.NewReader(r), nil },
		writer: func(w io.Writer, level int) (io.WriteCloser, error) { return flate.NewWriter(w, level) },
	},
}

// codecFor returns the compression of the file name. zstd is the default.
func codecFor(name string) codec {
	if name == "" {
		return zstdCodec
	}
	if c, ok := codecs[strings.ToLower(name)[len(name)-1]]; ok {
		return c
	}
	return zstdCodec
}

// parsePrec reads the precision in a header. ok is false if it is present but invalid.
func parsePrec(header map[string]string) (prec int, ok bool) {
	p, present := header["prec"]
	if !present {
		return defaultPrec, true
	}
	prec, err := strconv.Atoi(p)
	if err != nil || prec <= 0 {
		return defaultPrec, false
	}
	return prec, true
}

func encodeLine(x, y, z float64, scale float64) string {
	return fmt.Sprintf("%d %d %d\n", int(math.RoundToEven(x*scale)), int(math.RoundToEven(y*scale)), int(math.RoundToEven(z*scale)))
}

// decodeLine parses one atom line into dst.
func decodeLine(line string, dst *[3]float64, scale float64) error {
	f := strings.Fields(line)
	if len(f) != 3 {
		return fmt.Errorf("%s: %d fields in coordinates line %q, expected 3", WrongFormat, len(f), line)
	}
	for i, v := range f {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: coordinate %d (%s): %w", WrongFormat, i, v, err)
		}
		dst[i] = float64(n) / scale
	}
	return nil
}
