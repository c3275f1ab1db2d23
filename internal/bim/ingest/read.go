package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/fsutil"
)

// ErrUnsupportedFormat is returned for scan files no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported scan format")

// SupportedExtensions lists the accepted scan file extensions.
var SupportedExtensions = []string{".pcd", ".xyz", ".txt", ".csv"}

// Supported reports whether a file name has an accepted extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads the scan at path, choosing a reader by extension.
func Load(fsys fsutil.FileSystem, path string) ([]bim.Vec3, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Ext(path))
}

// Read decodes a scan stream in the format named by ext.
func Read(r io.Reader, ext string) ([]bim.Vec3, error) {
	switch strings.ToLower(ext) {
	case ".pcd":
		return ReadPCD(r)
	case ".xyz", ".txt", ".csv":
		return ReadXYZ(r)
	case ".e57":
		return nil, fmt.Errorf("%w: e57 scans must be converted to pcd or xyz first", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadPCD decodes a binary or binary_compressed PCD stream with x, y and z
// fields.
func ReadPCD(r io.Reader) ([]bim.Vec3, error) {
	pp, err := pc.Unmarshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pcd: %w", err)
	}
	return fromPointCloud(pp)
}

func fromPointCloud(pp *pc.PointCloud) ([]bim.Vec3, error) {
	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, fmt.Errorf("pcd has no xyz fields: %w", err)
	}
	pts := make([]bim.Vec3, 0, pp.Points)
	for ; it.IsValid(); it.Incr() {
		v := it.Vec3()
		pts = append(pts, bim.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
	}
	return pts, nil
}

func toPointCloud(pts []bim.Vec3) (*pc.PointCloud, error) {
	pp := &pc.PointCloud{
		PointCloudHeader: pc.PointCloudHeader{
			Version: 0.7,
			Fields:  []string{"x", "y", "z"},
			Size:    []int{4, 4, 4},
			Type:    []string{"F", "F", "F"},
			Count:   []int{1, 1, 1},
			Width:   len(pts),
			Height:  1,
		},
		Points: len(pts),
	}
	pp.Data = make([]byte, len(pts)*pp.Stride())
	if len(pts) == 0 {
		return pp, nil
	}
	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, err
	}
	for _, p := range pts {
		it.SetVec3(mat.Vec3{float32(p[0]), float32(p[1]), float32(p[2])})
		it.Incr()
	}
	return pp, nil
}

// WritePCD encodes pts as a PCD stream. Coordinates are stored as float32.
func WritePCD(w io.Writer, pts []bim.Vec3) error {
	pp, err := toPointCloud(pts)
	if err != nil {
		return fmt.Errorf("failed to build point cloud: %w", err)
	}
	if err := pc.Marshal(pp, w); err != nil {
		return fmt.Errorf("failed to write pcd: %w", err)
	}
	return nil
}

// ReadXYZ decodes delimited text with one point per line. Fields may be
// separated by whitespace, commas or semicolons; columns after the third
// (intensity, colour) are ignored. Blank lines, '#' comments and a single
// non-numeric header line are skipped.
func ReadXYZ(r io.Reader) ([]bim.Vec3, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var pts []bim.Vec3
	line := 0
	headerSeen := false
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", line, len(fields))
		}
		var p bim.Vec3
		var perr error
		for i := 0; i < 3; i++ {
			if p[i], perr = strconv.ParseFloat(fields[i], 64); perr != nil {
				break
			}
		}
		if perr != nil {
			if len(pts) == 0 && !headerSeen {
				headerSeen = true
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, perr)
		}
		pts = append(pts, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read xyz: %w", err)
	}
	return pts, nil
}
