package source

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// IDX file magic numbers.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
	pixelScale     = 255.0
)

// LoadIDX reads an IDX image/label file pair into a Memory source. Files
// with a .gz suffix are decompressed on the fly and pixels are scaled to
// [0,1].
func LoadIDX(imagesPath, labelsPath string, batchSize int, opts ...Option) (*Memory, error) {
	inputs, err := readIDXImages(imagesPath)
	if err != nil {
		return nil, err
	}
	labels, err := readIDXLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(labels) {
		return nil, fmt.Errorf("%s vs %s: %w", imagesPath, labelsPath, ErrSizeMismatch)
	}
	return NewMemory(inputs, labels, batchSize, opts...)
}

// readIDXImages parses an IDX3 image file into normalized feature rows.
func readIDXImages(path string) ([][]float32, error) {
	r, err := openDataset(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var header struct {
		Magic uint32
		Count uint32
		Rows  uint32
		Cols  uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	if header.Magic != idxImagesMagic {
		return nil, fmt.Errorf("%s: %w", path, ErrBadMagic)
	}

	pixels := int(header.Rows * header.Cols)
	raw := make([]byte, pixels)
	inputs := make([][]float32, header.Count)
	for i := range inputs {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("read %s image %d: %w", path, i, err)
		}
		row := make([]float32, pixels)
		for j, b := range raw {
			row[j] = float32(b) / pixelScale
		}
		inputs[i] = row
	}
	return inputs, nil
}

// readIDXLabels parses an IDX1 label file into class indices.
func readIDXLabels(path string) ([]int, error) {
	r, err := openDataset(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var header struct {
		Magic uint32
		Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	if header.Magic != idxLabelsMagic {
		return nil, fmt.Errorf("%s: %w", path, ErrBadMagic)
	}

	raw := make([]byte, header.Count)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read %s labels: %w", path, err)
	}
	labels := make([]int, header.Count)
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

// openDataset opens a dataset file, transparently unwrapping gzip.
func openDataset(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &gzipFile{zr: zr, f: f}, nil
}

// gzipFile closes both the gzip reader and the underlying file.
type gzipFile struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipFile) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipFile) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
