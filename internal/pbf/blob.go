// Package pbf implements the OSM PBF streaming codec (spec.md §4.4): blob
// framing, decompression/compression, and direct protowire decode/encode of
// the fixed OSM PBF message shapes. Like the teacher's parse.go, this
// package decodes straight against google.golang.org/protobuf/encoding/
// protowire rather than materializing generated message structs.
package pbf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	kzlib "github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// MaxBlobHeaderSize is the spec limit on a BlobHeader's encoded size.
	MaxBlobHeaderSize = 64 * 1024
	// MaxBlobSize is the spec limit on a compressed Blob's encoded size.
	MaxBlobSize = 32 * 1024 * 1024
	// MaxEntitiesPerBlock is the default encoder chunk size.
	MaxEntitiesPerBlock = 8000
)

// blobHeader is the BlobHeader message: required type, required datasize.
type blobHeader struct {
	Type     string
	DataSize int32
}

func readBlobHeader(r io.Reader) (blobHeader, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return blobHeader{}, io.EOF
		}
		return blobHeader{}, fmt.Errorf("pbf: reading blob header length: %w", err)
	}
	n := int(binary.BigEndian.Uint32(lenBuf[:]))
	if n <= 0 || n > MaxBlobHeaderSize {
		return blobHeader{}, fmt.Errorf("pbf: blob header size %d exceeds limit %d", n, MaxBlobHeaderSize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return blobHeader{}, fmt.Errorf("pbf: reading blob header: %w", err)
	}

	var h blobHeader
	data := buf
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return blobHeader{}, fmt.Errorf("pbf: malformed blob header tag")
		}
		data = data[n:]
		switch num {
		case 1: // type
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return blobHeader{}, fmt.Errorf("pbf: malformed blob header type field")
			}
			h.Type = v
			data = data[n:]
		case 3: // datasize
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return blobHeader{}, fmt.Errorf("pbf: malformed blob header datasize field")
			}
			h.DataSize = int32(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return blobHeader{}, fmt.Errorf("pbf: malformed blob header field %d", num)
			}
			data = data[n:]
		}
	}
	return h, nil
}

func writeBlobHeader(w io.Writer, h blobHeader) error {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendString(buf, h.Type)
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(h.DataSize))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(buf)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}

// readBlob reads h.DataSize bytes and decompresses them per whichever of
// Blob's raw/zlib_data/zstd_data fields is present.
func readBlob(r io.Reader, h blobHeader) ([]byte, error) {
	if h.DataSize <= 0 || int(h.DataSize) > MaxBlobSize {
		return nil, fmt.Errorf("pbf: blob size %d exceeds limit %d", h.DataSize, MaxBlobSize)
	}
	raw := make([]byte, h.DataSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("pbf: reading blob: %w", err)
	}

	var rawData, zlibData, zstdData []byte
	var rawSize int32
	data := raw
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("pbf: malformed blob tag")
		}
		data = data[n:]
		switch num {
		case 1: // raw
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed blob raw field")
			}
			rawData = v
			data = data[n:]
		case 2: // raw_size
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed blob raw_size field")
			}
			rawSize = int32(v)
			data = data[n:]
		case 3: // zlib_data
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed blob zlib_data field")
			}
			zlibData = v
			data = data[n:]
		case 7: // zstd_data
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed blob zstd_data field")
			}
			zstdData = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed blob field %d", num)
			}
			data = data[n:]
		}
	}

	switch {
	case rawData != nil:
		return rawData, nil
	case zlibData != nil:
		out, err := inflateZlib(zlibData, int(rawSize))
		if err != nil {
			return nil, fmt.Errorf("pbf: zlib inflate: %w", err)
		}
		return out, nil
	case zstdData != nil:
		out, err := inflateZstd(zstdData)
		if err != nil {
			return nil, fmt.Errorf("pbf: zstd inflate: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("pbf: blob carries no recognized payload")
	}
}

func inflateZlib(data []byte, sizeHint int) ([]byte, error) {
	zr, err := kzlib.NewReader(bytes.NewReader(data))
	if err != nil {
		// Fall back to the standard library in case klauspost's stricter
		// validation rejects a blob a reference implementation would accept.
		var stdErr error
		zr, stdErr = zlib.NewReader(bytes.NewReader(data))
		if stdErr != nil {
			return nil, err
		}
	}
	defer zr.Close()
	out := bytes.NewBuffer(make([]byte, 0, sizeHint))
	if _, err := io.Copy(out, zr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func inflateZstd(data []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// writeBlob zlib-compresses data at default level and writes a BlobHeader +
// Blob frame of blobType ("OSMHeader" or "OSMData").
func writeBlob(w io.Writer, blobType string, data []byte) error {
	var compressed bytes.Buffer
	zw, err := kzlib.NewWriterLevel(&compressed, kzlib.DefaultCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	var blob []byte
	blob = protowire.AppendTag(blob, 2, protowire.VarintType)
	blob = protowire.AppendVarint(blob, uint64(len(data)))
	blob = protowire.AppendTag(blob, 3, protowire.BytesType)
	blob = protowire.AppendBytes(blob, compressed.Bytes())

	if len(blob) > MaxBlobSize {
		return fmt.Errorf("pbf: encoded blob size %d exceeds limit %d", len(blob), MaxBlobSize)
	}

	if err := writeBlobHeader(w, blobHeader{Type: blobType, DataSize: int32(len(blob))}); err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}
