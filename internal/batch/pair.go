package batch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AmazingWilson-hub/road-lane/internal/fsutil"
	"github.com/AmazingWilson-hub/road-lane/internal/render"
)

// RecordExt is the extension of lane record files.
const RecordExt = ".txt"

// Frame is one image and its lane record, matched by file stem. Either path
// is empty when that input is missing.
type Frame struct {
	Stem       string
	ImagePath  string
	RecordPath string
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PairFrames matches images in imageDir with records in recordDir by stem.
// The result covers the union of both directories, sorted by stem. When a
// stem has several image files the first in name order wins.
func PairFrames(fsys fsutil.FileSystem, imageDir, recordDir string) ([]Frame, error) {
	images, err := fsys.ListFiles(imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list image dir %s: %w", imageDir, err)
	}
	records, err := fsys.ListFiles(recordDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list record dir %s: %w", recordDir, err)
	}

	byStem := make(map[string]*Frame)
	frame := func(stem string) *Frame {
		f, ok := byStem[stem]
		if !ok {
			f = &Frame{Stem: stem}
			byStem[stem] = f
		}
		return f
	}

	for _, name := range images {
		if !render.IsFrameFile(name) {
			continue
		}
		f := frame(Stem(name))
		if f.ImagePath != "" {
			continue
		}
		f.ImagePath = filepath.Join(imageDir, name)
	}
	for _, name := range records {
		if !strings.EqualFold(filepath.Ext(name), RecordExt) {
			continue
		}
		frame(Stem(name)).RecordPath = filepath.Join(recordDir, name)
	}

	frames := make([]Frame, 0, len(byStem))
	for _, f := range byStem {
		frames = append(frames, *f)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Stem < frames[j].Stem })
	return frames, nil
}
