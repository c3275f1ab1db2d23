package ifc

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

func testModel(t *testing.T) *model.BuildingModel {
	t.Helper()
	s, err := sample.NewPointSample([]bim.Vec3{{0, 0, 0}, {10, 8, 3}})
	require.NoError(t, err)
	return model.Assemble(s,
		[]elements.Slab{elements.NewSlab(0), elements.NewSlab(3)},
		[]elements.Wall{
			elements.NewWall(bim.Vec3{0, 0, 1.5}, bim.Vec3{10, 0, 1.5}, 1.5),
			elements.NewWall(bim.Vec3{0, 0, 1.5}, bim.Vec3{0, 8, 1.5}, 1.5),
			elements.NewWall(bim.Vec3{5, 5, 1.5}, bim.Vec3{5.01, 5, 1.5}, 1.5), // no geometry
		},
		[]elements.Column{elements.NewColumn(bim.Vec3{5, 4, 0}, 3)},
	)
}

var fixedOpts = Options{
	FileName:  "job.ifc",
	Namespace: uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8"),
	Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestWrite_Structure(t *testing.T) {
	var buf bytes.Buffer
	sum, err := Write(&buf, testModel(t), fixedOpts)
	require.NoError(t, err)

	assert.Equal(t, Summary{Storeys: 1, Slabs: 2, Walls: 2, Columns: 1, Skipped: 1}, sum)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "ISO-10303-21;\nHEADER;\n"))
	assert.True(t, strings.HasSuffix(out, "ENDSEC;\nEND-ISO-10303-21;\n"))
	assert.Contains(t, out, "FILE_SCHEMA(('IFC4'));")
	assert.Contains(t, out, "'2026-01-02T03:04:05'")
	assert.Contains(t, out, "'Ground Floor'")
	assert.Contains(t, out, "'Slab at Z=3.00'")

	for entity, want := range map[string]int{
		"IFCPROJECT(":                        1,
		"IFCSITE(":                           1,
		"IFCBUILDING(":                       1,
		"IFCBUILDINGSTOREY(":                 1,
		"IFCWALL(":                           2,
		"IFCSLAB(":                           2,
		"IFCCOLUMN(":                         1,
		"IFCEXTRUDEDAREASOLID(":              5,
		"IFCRELAGGREGATES(":                  3,
		"IFCRELCONTAINEDINSPATIALSTRUCTURE(": 1,
	} {
		assert.Equal(t, want, strings.Count(out, "="+entity), entity)
	}
}

func TestWrite_InstanceNumbering(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, testModel(t), fixedOpts)
	require.NoError(t, err)

	def := regexp.MustCompile(`(?m)^#(\d+)=`)
	use := regexp.MustCompile(`#(\d+)[,)]`)
	defined := map[string]bool{}
	for _, m := range def.FindAllStringSubmatch(buf.String(), -1) {
		require.False(t, defined[m[1]], "instance #%s defined twice", m[1])
		defined[m[1]] = true
	}
	for _, m := range use.FindAllStringSubmatch(buf.String(), -1) {
		assert.True(t, defined[m[1]], "reference to undefined #%s", m[1])
	}
}

func TestWrite_Deterministic(t *testing.T) {
	m := testModel(t)
	var a, b bytes.Buffer
	_, err := Write(&a, m, fixedOpts)
	require.NoError(t, err)
	_, err = Write(&b, m, fixedOpts)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestWrite_StoreysFromModel(t *testing.T) {
	m := model.AssignStoreys(testModel(t), model.DefaultStoreyTolerance)
	var buf bytes.Buffer
	sum, err := Write(&buf, m, fixedOpts)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Storeys)
	assert.Contains(t, buf.String(), "'Level 1'")
	assert.Equal(t, 2, strings.Count(buf.String(), "=IFCRELCONTAINEDINSPATIALSTRUCTURE("))
}

func TestWrite_EmptyModel(t *testing.T) {
	s, err := sample.NewPointSample(nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	sum, err := Write(&buf, model.Assemble(s, nil, nil, nil), fixedOpts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Storeys)
	assert.NotContains(t, buf.String(), "IFCRELCONTAINEDINSPATIALSTRUCTURE")
}

func TestWrite_DegenerateSlabSkipped(t *testing.T) {
	pts := make([]bim.Vec3, 50)
	for i := range pts {
		pts[i] = bim.Vec3{2, 0.1 * float64(i), 0}
	}
	s, err := sample.NewPointSample(pts)
	require.NoError(t, err)
	m := model.Assemble(s, []elements.Slab{elements.NewSlab(0)}, nil, nil)

	var buf bytes.Buffer
	sum, err := Write(&buf, m, fixedOpts)
	require.NoError(t, err)
	assert.Equal(t, Summary{Storeys: 1, Skipped: 1}, sum)
	assert.NotContains(t, buf.String(), "IFCSLAB(")
	assert.NotContains(t, buf.String(), "IFCRECTANGLEPROFILEDEF(")
}

func TestCompressGUID(t *testing.T) {
	assert.Equal(t, "0000000000000000000000", CompressGUID(uuid.Nil))
	assert.Equal(t, "3$$$$$$$$$$$$$$$$$$$$$", CompressGUID(uuid.Max))

	valid := regexp.MustCompile(`^[0-3][0-9A-Za-z_$]{21}$`)
	for i := 0; i < 20; i++ {
		assert.Regexp(t, valid, CompressGUID(uuid.New()))
	}
}

func TestStepFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{flt(0), "0."},
		{flt(-0.0), "0."},
		{flt(3), "3."},
		{flt(-1.5), "-1.5"},
		{flt(0.2), "0.2"},
		{str("it's"), "'it''s'"},
		{str(`a\b`), `'a\\b'`},
		{str("é"), `'\X2\00E9\X0\'`},
		{enum("AREA"), ".AREA."},
		{reals(1, 2), "(1.,2.)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got)
	}
}
