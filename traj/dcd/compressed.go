/*
 * compressed.go, part of mdrms
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

package dcd

import (
	"bufio"
	"compress/gzip"
	"compress/lzw"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	lzwOrder        = lzw.MSB
	lzwLitwidth int = 8
)

// bufCloser reads through a buffer and closes the underlying file.
type bufCloser struct {
	*bufio.Reader
	f *os.File
}

func (b bufCloser) Close() error { return b.f.Close() }

// zstdCloser adapts a zstd decoder, whose Close returns nothing, to io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// prepSource takes a filename and format string, opens the file and returns an object that will
// read data from the file, either 'as is' or decompressing first, it depending on the format string.
// If the format string is empty, it will try to deduce it form the file extension. File extensions supported are
// .dcd (non-compressed dcd), .gz (gzip), .lzw and .zst. If the format string is empty and the extension doesn't
// match any supported type, a message will be logged and the non-compressed dcd format will be assumed.
// thus, prepSource only returns an error if the file can't be opened.
func (D *DCDObj) prepSource(fname string, format string) (io.ReadCloser, error) {
	var err error
	var fk string
	if format == "" {
		temp := strings.Split(fname, ".")
		fk = strings.ToLower(temp[len(temp)-1])
	} else {
		fk = format
	}
	D.filename = fname
	f, err := os.Open(fname)
	if err != nil {
		return nil, wrapErr(err, D.filename, "os.Open", "prepSource")
	}
	D.fhandle = f
	reader := bufio.NewReader(f)
	switch fk {
	case "dcd":
		return bufCloser{reader, f}, nil
	case "lzw":
		return lzw.NewReader(reader, lzwOrder, lzwLitwidth), nil
	case "gz":
		r, err := gzip.NewReader(reader)
		if err != nil {
			return nil, wrapErr(err, D.filename, "gzip.NewReader", "prepSource")
		}
		return r, nil
	case "zst":
		r, err := zstd.NewReader(reader)
		if err != nil {
			return nil, wrapErr(err, D.filename, "zstd.NewReader", "prepSource")
		}
		return zstdCloser{r}, nil
	default:
		//if it's not a plain DCD, you'll get an error later.
		log.Printf("Format string %s not supported. %s will be assumed to be a plain DCD file", fk, D.filename)
		return bufCloser{reader, f}, nil
	}
}

// prepTarget creates fname and returns a writer that compresses the data if fname has
// a .gz, .lzw or .zst extension. Compressed targets can't be seeked, so the frame count
// in their header is never updated.
func prepTarget(fname string) (io.WriteCloser, *os.File, bool, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, nil, false, wrapErr(err, fname, "os.Create", "prepTarget")
	}
	temp := strings.Split(fname, ".")
	switch strings.ToLower(temp[len(temp)-1]) {
	case "lzw":
		return lzw.NewWriter(f, lzwOrder, lzwLitwidth), f, true, nil
	case "gz":
		return gzip.NewWriter(f), f, true, nil
	case "zst":
		w, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, nil, false, wrapErr(err, fname, "zstd.NewWriter", "prepTarget")
		}
		return w, f, true, nil
	default:
		return f, f, false, nil
	}
}
