package lane

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MinConfidence is the confidence below which lane hypotheses are dropped.
const MinConfidence = 0.5

// Meta line layout. Fields past metaLengthIndex are ignored.
const (
	metaConfidenceIndex = 1
	metaSideIndex       = 2
	metaLengthIndex     = 4
	minMetaFields       = metaLengthIndex + 1
)

// maxLineBytes bounds a single record line.
const maxLineBytes = 1 << 20

// SkipReason says why a meta/coefficient pair produced no descriptor.
type SkipReason string

const (
	SkipMalformed           SkipReason = "malformed"
	SkipShortMeta           SkipReason = "short_meta"
	SkipLowConfidence       SkipReason = "low_confidence"
	SkipNonFiniteConfidence SkipReason = "non_finite_confidence"
)

// Skip records a dropped pair. Line is the 1-based number of its meta line.
type Skip struct {
	Line   int
	Reason SkipReason
	Err    error
}

func (s Skip) String() string {
	if s.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", s.Line, s.Reason, s.Err)
	}
	return fmt.Sprintf("line %d: %s", s.Line, s.Reason)
}

// Result is the outcome of parsing one frame record.
type Result struct {
	Lanes   []Descriptor
	Skipped []Skip
}

// Parse reads a whole frame record and returns the lanes that pass
// validation. Lines are consumed in pairs: a meta line followed by a
// coefficient line. Bad pairs are dropped and reported in Result.Skipped;
// a trailing unpaired line is never consumed. The returned error is only
// non-nil when reading from r fails.
func Parse(r io.Reader) (Result, error) {
	lines, err := readLines(r)
	if err != nil {
		return Result{}, err
	}

	res := Result{Lanes: make([]Descriptor, 0, len(lines)/2)}
	for i := 0; i+1 < len(lines); i += 2 {
		d, skip, ok := parsePair(lines[i], lines[i+1])
		if !ok {
			skip.Line = i + 1
			res.Skipped = append(res.Skipped, skip)
			continue
		}
		res.Lanes = append(res.Lanes, d)
	}
	return res, nil
}

// ParseString parses an in-memory record and returns only the accepted lanes.
func ParseString(record string) []Descriptor {
	// strings.Reader never fails.
	res, _ := Parse(strings.NewReader(record))
	return res.Lanes
}

func readLines(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lane record: %w", err)
	}
	return lines, nil
}

func parsePair(metaLine, coefLine string) (Descriptor, Skip, bool) {
	meta, err := parseFloatList(metaLine)
	if err != nil {
		return Descriptor{}, Skip{Reason: SkipMalformed, Err: fmt.Errorf("meta: %w", err)}, false
	}
	coef, err := parseFloatList(coefLine)
	if err != nil {
		return Descriptor{}, Skip{Reason: SkipMalformed, Err: fmt.Errorf("coefficients: %w", err)}, false
	}
	if len(meta) < minMetaFields {
		return Descriptor{}, Skip{Reason: SkipShortMeta}, false
	}

	confidence := meta[metaConfidenceIndex]
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return Descriptor{}, Skip{Reason: SkipNonFiniteConfidence}, false
	}
	if confidence < MinConfidence {
		return Descriptor{}, Skip{Reason: SkipLowConfidence}, false
	}

	return Descriptor{
		Coefficients: coef,
		Length:       meta[metaLengthIndex],
		Confidence:   confidence,
		Side:         sideFromMeta(meta),
	}, Skip{}, true
}

func sideFromMeta(meta []float64) Side {
	if len(meta) <= metaSideIndex {
		return SideUnknown
	}
	v := meta[metaSideIndex]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return SideUnknown
	}
	// Truncates toward zero.
	return Side(int(v))
}

// parseFloatList parses a comma-separated list of floats. An empty line is
// an error, as is any empty field.
func parseFloatList(line string) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
