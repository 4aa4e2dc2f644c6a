package projection

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"
)

// MatrixPrecision is the number of decimals written by WriteMatrix.
const MatrixPrecision = 6

// WriteMatrix writes m as a plain numeric table: one row per line, values
// space-delimited with six decimals.
func WriteMatrix(w io.Writer, m mat.Matrix) error {
	r, c := m.Dims()
	bw := bufio.NewWriter(w)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.FormatFloat(m.At(i, j), 'f', MatrixPrecision, 64)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTransform writes an extrinsic in the calibration export format.
func WriteTransform(w io.Writer, t Transform) error {
	return WriteMatrix(w, t.Dense())
}

// ReadMatrix reads a numeric table with space- or comma-delimited rows.
// Blank lines and lines starting with '#' are ignored. All rows must have
// the same width.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	var (
		data []float64
		cols int
		rows int
	)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%w: matrix line %d has %d values, expected %d", ErrInvalidConfig, lineNo, len(fields), cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: matrix line %d: invalid float %q", ErrInvalidConfig, lineNo, f)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matrix: %w", err)
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: matrix is empty", ErrInvalidConfig)
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadTransform reads an extrinsic previously written by WriteTransform (or
// numpy.savetxt). Anything but a valid 4x4 table is a configuration error.
func ReadTransform(r io.Reader) (Transform, error) {
	m, err := ReadMatrix(r)
	if err != nil {
		return Transform{}, err
	}
	return TransformFromDense(m)
}
