package ir

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tovenja/quench/internal/domain/quant"
	"github.com/tovenja/quench/pkg/metrics"
)

// On-disk layout: magic, uint32 header length, JSON header, then the
// zlib-compressed little-endian parameter payload (weights, then bias).
var artifactMagic = []byte("QIR1")

// maxHeaderBytes bounds the header length field against corrupt files.
const maxHeaderBytes = 1 << 16

// Save writes the artifact to path.
func (a *Artifact) Save(path string) error {
	header, err := json.Marshal(a.Header)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Write(artifactMagic)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(header))); err != nil {
		return err
	}
	buf.Write(header)

	zw := zlib.NewWriter(&buf)
	if a.Header.Precision == quant.INT8 {
		err = binary.Write(zw, binary.LittleEndian, a.Codes)
	} else {
		err = binary.Write(zw, binary.LittleEndian, a.Weights)
	}
	if err != nil {
		return err
	}
	if err := binary.Write(zw, binary.LittleEndian, a.Bias); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	metrics.UpdateArtifactBytes(buf.Len())
	return nil
}

// Load reads an artifact from path. Files that are not artifacts, or that
// are truncated or otherwise damaged, yield ErrBadArtifact.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < len(artifactMagic)+4 {
		return nil, fmt.Errorf("%w: file too short", ErrBadArtifact)
	}
	if !bytes.Equal(data[:len(artifactMagic)], artifactMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrBadArtifact)
	}
	data = data[len(artifactMagic):]

	headerLen := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if headerLen > maxHeaderBytes || int(headerLen) > len(data) {
		return nil, fmt.Errorf("%w: header length %d out of range", ErrBadArtifact, headerLen)
	}
	var header Header
	if err := json.Unmarshal(data[:headerLen], &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(data[headerLen:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	defer zr.Close()

	art := &Artifact{Header: header}
	if header.Precision == quant.INT8 {
		art.Codes = make([]int8, header.Classes*header.Features)
		err = binary.Read(zr, binary.LittleEndian, art.Codes)
	} else {
		art.Weights = make([]float32, header.Classes*header.Features)
		err = binary.Read(zr, binary.LittleEndian, art.Weights)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: truncated payload", ErrBadArtifact)
	}
	art.Bias = make([]float32, header.Classes)
	if err := binary.Read(zr, binary.LittleEndian, art.Bias); err != nil {
		return nil, fmt.Errorf("%w: truncated payload", ErrBadArtifact)
	}
	// A clean EOF here also verifies the zlib checksum.
	var trailing [1]byte
	if n, err := zr.Read(trailing[:]); n != 0 || (err != nil && err != io.EOF) {
		return nil, fmt.Errorf("%w: corrupt payload", ErrBadArtifact)
	}
	return art, nil
}

func validateHeader(h Header) error {
	if h.Version != artifactVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadArtifact, h.Version)
	}
	if h.Arch != ArchLinear {
		return fmt.Errorf("%w: unknown arch %q", ErrBadArtifact, h.Arch)
	}
	if h.Features < 1 || h.Classes < 1 {
		return fmt.Errorf("%w: shape %dx%d", ErrBadArtifact, h.Classes, h.Features)
	}
	if !h.Precision.Valid() {
		return fmt.Errorf("%w: precision %q", ErrBadArtifact, h.Precision)
	}
	if h.Precision == quant.INT8 && h.Scale <= 0 {
		return fmt.Errorf("%w: int8 artifact without a positive scale", ErrBadArtifact)
	}
	return nil
}
