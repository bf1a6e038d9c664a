// Package formats provides readers and writers for point cloud file formats.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic        = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat   = errors.New("unsupported PLY format")
	ErrUnsupportedPLYProperty = errors.New("unsupported PLY property")
	ErrTruncatedPLYData       = errors.New("truncated PLY data")
	ErrMissingPLYPosition     = errors.New("PLY vertex element has no x/y/z properties")
)

// PLYFormat is the body encoding declared in the header.
type PLYFormat uint8

// Body encodings.
const (
	PLYASCII PLYFormat = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

// String returns the header spelling of the format.
func (f PLYFormat) String() string {
	switch f {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// PLYProperty is one scalar vertex property.
type PLYProperty struct {
	Name string
	Type string // canonical type name: int8, uint8, int16, uint16, int32, uint32, float32, float64
	Size int    // size in bytes in the binary encoding
}

// PLYHeader describes the vertex layout of a PLY file.
type PLYHeader struct {
	Format      PLYFormat
	VertexCount int
	Properties  []PLYProperty
	Comments    []string
	DataOffset  int // byte offset of the body
}

// Stride returns the size of one binary vertex record.
func (h *PLYHeader) Stride() int {
	n := 0
	for _, p := range h.Properties {
		n += p.Size
	}
	return n
}

// PropertyIndex returns the index of the named property or -1.
func (h *PLYHeader) PropertyIndex(name string) int {
	for i, p := range h.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// SplatCloud holds the per-point data the LOD pipeline needs from a splat file.
type SplatCloud struct {
	Count     int
	Positions []float32 // flat x,y,z per point
	Scales    []float32 // flat log-scale_0..2 per point; nil when the file has none
}

// HasScales reports whether per-splat scales were present.
func (c *SplatCloud) HasScales() bool {
	return len(c.Scales) == 3*c.Count && c.Count > 0
}

var plyTypes = map[string]struct {
	canonical string
	size      int
}{
	"char": {"int8", 1}, "int8": {"int8", 1},
	"uchar": {"uint8", 1}, "uint8": {"uint8", 1},
	"short": {"int16", 2}, "int16": {"int16", 2},
	"ushort": {"uint16", 2}, "uint16": {"uint16", 2},
	"int": {"int32", 4}, "int32": {"int32", 4},
	"uint": {"uint32", 4}, "uint32": {"uint32", 4},
	"float": {"float32", 4}, "float32": {"float32", 4},
	"double": {"float64", 8}, "float64": {"float64", 8},
}

// ParsePLYHeader parses the header of a PLY file. Only the vertex element is
// described; it must be the first element in the file.
func ParsePLYHeader(data []byte) (*PLYHeader, error) {
	if !bytes.HasPrefix(data, []byte("ply")) {
		return nil, ErrInvalidPLYMagic
	}

	h := &PLYHeader{}
	offset := 0
	inVertex := false
	seenElement := false
	formatSet := false

	for {
		nl := bytes.IndexByte(data[offset:], '\n')
		if nl < 0 {
			return nil, fmt.Errorf("%w: missing end_header", ErrTruncatedPLYData)
		}
		line := strings.TrimRight(string(data[offset:offset+nl]), "\r")
		offset += nl + 1

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "ply", "obj_info":
		case "comment":
			h.Comments = append(h.Comments, strings.TrimSpace(strings.TrimPrefix(line, "comment")))
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: %q", ErrUnsupportedPLYFormat, line)
			}
			switch fields[1] {
			case "ascii":
				h.Format = PLYASCII
			case "binary_little_endian":
				h.Format = PLYBinaryLittleEndian
			case "binary_big_endian":
				h.Format = PLYBinaryBigEndian
			default:
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, fields[1])
			}
			formatSet = true
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed element line %q", line)
			}
			if fields[1] == "vertex" {
				if seenElement {
					return nil, fmt.Errorf("%w: vertex must be the first element", ErrUnsupportedPLYFormat)
				}
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("invalid vertex count %q", fields[2])
				}
				h.VertexCount = n
				inVertex = true
			} else {
				inVertex = false
			}
			seenElement = true
		case "property":
			if !inVertex {
				continue
			}
			if len(fields) >= 2 && fields[1] == "list" {
				return nil, fmt.Errorf("%w: list in vertex element", ErrUnsupportedPLYProperty)
			}
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed property line %q", line)
			}
			t, ok := plyTypes[fields[1]]
			if !ok {
				return nil, fmt.Errorf("%w: type %s", ErrUnsupportedPLYProperty, fields[1])
			}
			h.Properties = append(h.Properties, PLYProperty{Name: fields[2], Type: t.canonical, Size: t.size})
		case "end_header":
			if !formatSet {
				return nil, fmt.Errorf("%w: no format line", ErrUnsupportedPLYFormat)
			}
			h.DataOffset = offset
			return h, nil
		}
	}
}

// ParseSplatPLY parses positions and, when present, scale_0..2 from a PLY file.
func ParseSplatPLY(data []byte) (*SplatCloud, error) {
	h, err := ParsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	pos := [3]int{h.PropertyIndex("x"), h.PropertyIndex("y"), h.PropertyIndex("z")}
	if pos[0] < 0 || pos[1] < 0 || pos[2] < 0 {
		return nil, ErrMissingPLYPosition
	}
	scl := [3]int{h.PropertyIndex("scale_0"), h.PropertyIndex("scale_1"), h.PropertyIndex("scale_2")}
	hasScales := scl[0] >= 0 && scl[1] >= 0 && scl[2] >= 0

	cloud := &SplatCloud{
		Count:     h.VertexCount,
		Positions: make([]float32, 3*h.VertexCount),
	}
	if hasScales {
		cloud.Scales = make([]float32, 3*h.VertexCount)
	}

	body := data[h.DataOffset:]
	emit := func(i int, values []float64) {
		for a := 0; a < 3; a++ {
			cloud.Positions[3*i+a] = float32(values[pos[a]])
			if hasScales {
				cloud.Scales[3*i+a] = float32(values[scl[a]])
			}
		}
	}

	if h.Format == PLYASCII {
		err = readASCIIVertices(body, h, emit)
	} else {
		err = readBinaryVertices(body, h, emit)
	}
	if err != nil {
		return nil, err
	}
	return cloud, nil
}

func readBinaryVertices(body []byte, h *PLYHeader, emit func(int, []float64)) error {
	stride := h.Stride()
	if len(body) < stride*h.VertexCount {
		return fmt.Errorf("%w: need %d bytes for %d vertices, have %d",
			ErrTruncatedPLYData, stride*h.VertexCount, h.VertexCount, len(body))
	}

	var order binary.ByteOrder = binary.LittleEndian
	if h.Format == PLYBinaryBigEndian {
		order = binary.BigEndian
	}

	values := make([]float64, len(h.Properties))
	for i := 0; i < h.VertexCount; i++ {
		rec := body[i*stride : (i+1)*stride]
		off := 0
		for j, p := range h.Properties {
			values[j] = decodeScalar(rec[off:off+p.Size], p.Type, order)
			off += p.Size
		}
		emit(i, values)
	}
	return nil
}

func decodeScalar(b []byte, typ string, order binary.ByteOrder) float64 {
	switch typ {
	case "int8":
		return float64(int8(b[0]))
	case "uint8":
		return float64(b[0])
	case "int16":
		return float64(int16(order.Uint16(b)))
	case "uint16":
		return float64(order.Uint16(b))
	case "int32":
		return float64(int32(order.Uint32(b)))
	case "uint32":
		return float64(order.Uint32(b))
	case "float32":
		return float64(math.Float32frombits(order.Uint32(b)))
	default:
		return math.Float64frombits(order.Uint64(b))
	}
}

func readASCIIVertices(body []byte, h *PLYHeader, emit func(int, []float64)) error {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	values := make([]float64, len(h.Properties))
	i := 0
	for i < h.VertexCount && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < len(h.Properties) {
			return fmt.Errorf("%w: vertex %d has %d values, want %d",
				ErrTruncatedPLYData, i, len(fields), len(h.Properties))
		}
		for j := range h.Properties {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return fmt.Errorf("vertex %d property %s: %w", i, h.Properties[j].Name, err)
			}
			values[j] = v
		}
		emit(i, values)
		i++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if i < h.VertexCount {
		return fmt.Errorf("%w: read %d of %d vertices", ErrTruncatedPLYData, i, h.VertexCount)
	}
	return nil
}

// ParseSplatPLYFile parses a splat PLY file from disk.
func ParseSplatPLYFile(path string) (*SplatCloud, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	return ParseSplatPLY(data)
}

// WriteSplatPLY writes the cloud as binary little-endian PLY with float
// x, y, z and, when present, scale_0..2 properties.
func WriteSplatPLY(w io.Writer, cloud *SplatCloud) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "ply\nformat binary_little_endian 1.0\nelement vertex %d\n", cloud.Count)
	fmt.Fprint(bw, "property float x\nproperty float y\nproperty float z\n")
	if cloud.HasScales() {
		fmt.Fprint(bw, "property float scale_0\nproperty float scale_1\nproperty float scale_2\n")
	}
	fmt.Fprint(bw, "end_header\n")

	var buf [4]byte
	put := func(v float32) error {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		_, err := bw.Write(buf[:])
		return err
	}
	for i := 0; i < cloud.Count; i++ {
		for a := 0; a < 3; a++ {
			if err := put(cloud.Positions[3*i+a]); err != nil {
				return err
			}
		}
		if cloud.HasScales() {
			for a := 0; a < 3; a++ {
				if err := put(cloud.Scales[3*i+a]); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

// WriteSplatPLYFile writes the cloud to path.
func WriteSplatPLYFile(path string, cloud *SplatCloud) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating PLY file: %w", err)
	}
	defer f.Close()

	if err := WriteSplatPLY(f, cloud); err != nil {
		return err
	}
	return f.Close()
}
