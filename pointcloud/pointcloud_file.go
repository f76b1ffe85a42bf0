package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/pcindex/logging"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// maxPreallocatedPoints caps the buffer capacity reserved from a PCD header's POINTS count.
const maxPreallocatedPoints = 1 << 20

// NewFromFile returns a point buffer read in from the given file.
func NewFromFile(fn string, logger logging.Logger) (*Buffer, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".las":
		return NewFromLASFile(fn, logger)
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		buf, err := ReadPCD(f)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %q", fn)
		}
		logger.Debugw("read pcd file", "file", fn, "points", buf.Size())
		return buf, nil
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// NewFromLASFile returns a point buffer from reading a LAS file. Colors are kept when the file
// uses point format 2.
func NewFromLASFile(fn string, logger logging.Logger) (*Buffer, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	buf := NewBuffer(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()

		var c *color.NRGBA
		if lf.Header.PointFormatID == 2 && p.RgbData() != nil {
			c = &color.NRGBA{
				R: uint8(p.RgbData().Red / 256),
				G: uint8(p.RgbData().Green / 256),
				B: uint8(p.RgbData().Blue / 256),
				A: 255,
			}
		}
		buf.Append(r3.Vector{X: data.X, Y: data.Y, Z: data.Z}, c)
	}
	logger.Debugw("read las file", "file", fn, "points", buf.Size(), "color", buf.MetaData().HasColor)
	return buf, nil
}

func pcdIntToColor(c uint32) color.NRGBA {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & (c >> 0))
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

type pcdFieldType int

const (
	pcdPointOnly  pcdFieldType = 3
	pcdPointColor pcdFieldType = 4
)

type pcdValType string

const (
	pcdValFloat pcdValType = "F"
	pcdValInt   pcdValType = "I"
	pcdValUInt  pcdValType = "U"
)

type pcdHeader struct {
	fields pcdFieldType
	size   []uint64
	types  []pcdValType
	count  []uint64
	width  uint64
	height uint64
	points uint64
	data   PCDType
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Fields(value)
	if field != name {
		return fmt.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return fmt.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		switch strings.Join(tokens, " ") {
		case "x y z":
			header.fields = pcdPointOnly
		case "x y z rgb":
			header.fields = pcdPointColor
		default:
			return fmt.Errorf("unsupported pcd fields %s", value)
		}
	case "SIZE":
		if len(tokens) != int(header.fields) {
			return fmt.Errorf("unexpected number of fields in SIZE line")
		}
		header.size = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.size[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid SIZE field %s", token)
			}
		}
	case "TYPE":
		if len(tokens) != int(header.fields) {
			return fmt.Errorf("unexpected number of fields in TYPE line")
		}
		header.types = make([]pcdValType, len(tokens))
		for i, token := range tokens {
			header.types[i] = pcdValType(token)
			if err := checkPCDFieldType(header.types[i], header.size[i]); err != nil {
				return err
			}
		}
	case "COUNT":
		if len(tokens) != int(header.fields) {
			return fmt.Errorf("unexpected number of fields in COUNT line")
		}
		header.count = make([]uint64, len(tokens))
		for i, token := range tokens {
			header.count[i], err = strconv.ParseUint(token, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid COUNT field %s: %w", token, err)
			}
			if header.count[i] != 1 {
				return fmt.Errorf("unsupported COUNT %d for field %d", header.count[i], i)
			}
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid WIDTH field %s: %w", value, err)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid HEIGHT field %s: %w", value, err)
		}
	case "VIEWPOINT":
		// the viewpoint is a sensor pose; buffers are always in the cloud's own frame
		if len(tokens) != 7 {
			return fmt.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
	case "POINTS":
		var points uint64
		points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid POINTS field %s: %w", value, err)
		}
		if points != header.width*header.height {
			return fmt.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return fmt.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

func checkPCDFieldType(t pcdValType, size uint64) error {
	switch {
	case t == pcdValFloat && (size == 4 || size == 8):
	case (t == pcdValInt || t == pcdValUInt) && size == 4:
	default:
		return fmt.Errorf("unsupported pcd field of type %s and size %d", t, size)
	}
	return nil
}

// ReadPCD reads an ascii or binary pcd stream with "x y z" or "x y z rgb" fields into a buffer.
func ReadPCD(inRaw io.Reader) (*Buffer, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading header line %d: %w", headerLineCount, err)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	default:
		return nil, fmt.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (*Buffer, error) {
	buf := NewBuffer(int(min(header.points, maxPreallocatedPoints)))
	values := make([]float64, int(header.fields))
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, fmt.Errorf("reading point %d: %w", i, err)
		}
		tokens := strings.Fields(line)
		if len(tokens) != int(header.fields) {
			return nil, fmt.Errorf("unexpected number of fields in point %d", i)
		}
		for j, token := range tokens {
			values[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid point %d field %s: %w", i, token, err)
			}
		}
		if header.fields == pcdPointColor && header.types[3] == pcdValFloat {
			values[3] = float64(math.Float32bits(float32(values[3])))
		}
		appendPCDPoint(buf, values, header)
	}
	return buf, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (*Buffer, error) {
	recordSize := 0
	for _, s := range header.size {
		recordSize += int(s)
	}
	record := make([]byte, recordSize)
	values := make([]float64, int(header.fields))

	buf := NewBuffer(int(min(header.points, maxPreallocatedPoints)))
	for i := 0; i < int(header.points); i++ {
		if _, err := io.ReadFull(in, record); err != nil {
			return nil, fmt.Errorf("reading point %d: %w", i, err)
		}
		offset := 0
		for j := range values {
			field := record[offset : offset+int(header.size[j])]
			switch {
			case header.types[j] == pcdValFloat && header.size[j] == 8:
				values[j] = math.Float64frombits(binary.LittleEndian.Uint64(field))
			case header.types[j] == pcdValFloat:
				values[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(field)))
			case header.types[j] == pcdValInt:
				values[j] = float64(int32(binary.LittleEndian.Uint32(field)))
			default:
				values[j] = float64(binary.LittleEndian.Uint32(field))
			}
			offset += int(header.size[j])
		}
		if header.fields == pcdPointColor && header.types[3] == pcdValFloat && header.size[3] == 4 {
			// packed rgb stored in the bits of a float
			values[3] = float64(binary.LittleEndian.Uint32(record[offset-4 : offset]))
		}
		appendPCDPoint(buf, values, header)
	}
	return buf, nil
}

func appendPCDPoint(buf *Buffer, values []float64, header pcdHeader) {
	pos := r3.Vector{X: values[0], Y: values[1], Z: values[2]}
	if header.fields != pcdPointColor {
		buf.Append(pos, nil)
		return
	}
	c := pcdIntToColor(uint32(values[3]))
	buf.Append(pos, &c)
}
