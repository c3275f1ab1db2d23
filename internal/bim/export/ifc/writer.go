package ifc

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/geometry"
	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/version"
)

// MediaType is the content type served for IFC downloads.
const MediaType = "application/x-step"

// Options controls the file header and identifiers.
type Options struct {
	FileName    string
	ProjectName string
	// Namespace, when set, makes every GlobalId a deterministic function of
	// the namespace and the element's position in the model.
	Namespace uuid.UUID
	// Timestamp is written to FILE_NAME; zero means now.
	Timestamp time.Time
}

func (o Options) withDefaults() Options {
	if o.FileName == "" {
		o.FileName = "model.ifc"
	}
	if o.ProjectName == "" {
		o.ProjectName = "Point Cloud to IFC Conversion"
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now().UTC()
	}
	return o
}

// Summary counts what Write emitted.
type Summary struct {
	Storeys int
	Slabs   int
	Walls   int
	Columns int
	Skipped int // elements that produced no geometry
}

// StoreyName returns the display name of storey idx.
func StoreyName(idx int) string {
	if idx == 0 {
		return "Ground Floor"
	}
	return fmt.Sprintf("Level %d", idx)
}

type builder struct {
	f     stepFile
	guids guidSource

	origin, zDir, xDir ref
	worldPlacement     ref
	body               ref
}

// Write serializes m as IFC4.
func Write(w io.Writer, m *model.BuildingModel, opts Options) (Summary, error) {
	opts = opts.withDefaults()
	b := &builder{guids: guidSource{ns: opts.Namespace}}
	var sum Summary

	b.origin = b.point3(bim.Vec3{})
	b.zDir = b.direction(bim.UnitZ)
	b.xDir = b.direction(bim.UnitX)
	wcs := b.f.add("IFCAXIS2PLACEMENT3D", b.origin.String(), b.zDir.String(), b.xDir.String())

	ctx := b.f.add("IFCGEOMETRICREPRESENTATIONCONTEXT", unset, str("Model"), integer(3), "1.E-05", wcs.String(), unset)
	b.body = b.f.add("IFCGEOMETRICREPRESENTATIONSUBCONTEXT", str("Body"), str("Model"), "*", "*", "*", "*", ctx.String(), unset, enum("MODEL_VIEW"), unset)
	units := b.units()

	project := b.f.add("IFCPROJECT", str(b.guids.next("project")), unset, str(opts.ProjectName), unset, unset, unset, unset, refs(ctx), units.String())

	b.worldPlacement = b.f.add("IFCLOCALPLACEMENT", unset, wcs.String())
	sitePlacement := b.worldPlacement
	site := b.f.add("IFCSITE", str(b.guids.next("site")), unset, str("Site"), unset, unset, sitePlacement.String(), unset, unset, enum("ELEMENT"), unset, unset, unset, unset, unset)
	building := b.f.add("IFCBUILDING", str(b.guids.next("building")), unset, str("Building"), unset, unset, sitePlacement.String(), unset, unset, enum("ELEMENT"), unset, unset, unset)
	b.aggregate("project", project, site)
	b.aggregate("site", site, building)

	storeyIdx := m.StoreyIndices()
	storeyRefs := make([]ref, len(storeyIdx))
	storeyOf := make(map[int]ref, len(storeyIdx))
	for i, idx := range storeyIdx {
		elev := storeyElevation(m, idx)
		storeyRefs[i] = b.f.add("IFCBUILDINGSTOREY", str(b.guids.next("storey/%d", idx)), unset, str(StoreyName(idx)), unset, unset, sitePlacement.String(), unset, unset, enum("ELEMENT"), flt(elev))
		storeyOf[idx] = storeyRefs[i]
	}
	b.aggregate("building", building, storeyRefs...)
	sum.Storeys = len(storeyRefs)

	contained := make(map[int][]ref)
	bounds := m.BoundsOrZero()
	for i, el := range m.Elements.All() {
		solid, ok := geometry.Synthesize(el, bounds)
		if !ok {
			sum.Skipped++
			continue
		}
		r := b.element(solid, i)
		contained[solid.Storey] = append(contained[solid.Storey], r)
		switch solid.Kind {
		case elements.KindSlab:
			sum.Slabs++
		case elements.KindWall:
			sum.Walls++
		case elements.KindColumn:
			sum.Columns++
		}
	}
	for _, idx := range storeyIdx {
		if els := contained[idx]; len(els) > 0 {
			b.f.add("IFCRELCONTAINEDINSPATIALSTRUCTURE", str(b.guids.next("contains/%d", idx)), unset, unset, unset, refs(els...), storeyOf[idx].String())
		}
	}

	header := []string{
		"FILE_DESCRIPTION(('ViewDefinition [DesignTransferView]'),'2;1');",
		fmt.Sprintf("FILE_NAME(%s,%s,(''),(''),%s,%s,'');",
			str(opts.FileName),
			str(opts.Timestamp.UTC().Format("2006-01-02T15:04:05")),
			str("scan2bim "+version.Version),
			str("scan2bim")),
		"FILE_SCHEMA(('IFC4'));",
	}
	if err := b.f.writeTo(w, header); err != nil {
		return sum, fmt.Errorf("failed to write ifc: %w", err)
	}
	bim.Diagf("ifc: wrote %d instances (%d slabs, %d walls, %d columns, %d storeys)",
		len(b.f.lines), sum.Slabs, sum.Walls, sum.Columns, sum.Storeys)
	return sum, nil
}

// storeyElevation is the lowest slab on the storey, or 0.
func storeyElevation(m *model.BuildingModel, idx int) float64 {
	elev := math.Inf(1)
	for _, s := range m.Elements.Slabs {
		if s.Storey() == idx && s.Z < elev {
			elev = s.Z
		}
	}
	if math.IsInf(elev, 1) {
		return 0
	}
	return elev
}

func (b *builder) point3(p bim.Vec3) ref {
	return b.f.add("IFCCARTESIANPOINT", reals(p[0], p[1], p[2]))
}

func (b *builder) direction(d bim.Vec3) ref {
	return b.f.add("IFCDIRECTION", reals(d[0], d[1], d[2]))
}

func (b *builder) units() ref {
	length := b.f.add("IFCSIUNIT", "*", enum("LENGTHUNIT"), unset, enum("METRE"))
	area := b.f.add("IFCSIUNIT", "*", enum("AREAUNIT"), unset, enum("SQUARE_METRE"))
	volume := b.f.add("IFCSIUNIT", "*", enum("VOLUMEUNIT"), unset, enum("CUBIC_METRE"))
	angle := b.f.add("IFCSIUNIT", "*", enum("PLANEANGLEUNIT"), unset, enum("RADIAN"))
	return b.f.add("IFCUNITASSIGNMENT", refs(length, area, volume, angle))
}

func (b *builder) aggregate(name string, parent ref, children ...ref) {
	b.f.add("IFCRELAGGREGATES", str(b.guids.next("aggregates/%s", name)), unset, unset, unset, parent.String(), refs(children...))
}

// element emits the product, its placement and its swept-solid body.
func (b *builder) element(s geometry.Solid, i int) ref {
	c := s.Profile.Center()
	profilePos := b.f.add("IFCAXIS2PLACEMENT2D", b.f.add("IFCCARTESIANPOINT", reals(c[0], c[1])).String(), unset)
	profile := b.f.add("IFCRECTANGLEPROFILEDEF", enum("AREA"), unset, profilePos.String(), flt(s.Profile.XDim), flt(s.Profile.YDim))

	solidPos := b.f.add("IFCAXIS2PLACEMENT3D", b.origin.String(), unset, unset)
	extrusion := b.f.add("IFCEXTRUDEDAREASOLID", profile.String(), solidPos.String(), b.direction(s.Extrusion.Direction).String(), flt(s.Extrusion.Depth))
	rep := b.f.add("IFCSHAPEREPRESENTATION", b.body.String(), str("Body"), str("SweptSolid"), refs(extrusion))
	shape := b.f.add("IFCPRODUCTDEFINITIONSHAPE", unset, unset, refs(rep))

	p := s.Placement
	axis := b.f.add("IFCAXIS2PLACEMENT3D", b.point3(p.Location).String(), b.direction(p.Axis).String(), b.direction(p.RefDirection).String())
	placement := b.f.add("IFCLOCALPLACEMENT", b.worldPlacement.String(), axis.String())

	var entity, predefined string
	switch s.Kind {
	case elements.KindSlab:
		entity, predefined = "IFCSLAB", "FLOOR"
	case elements.KindWall:
		entity, predefined = "IFCWALL", "STANDARD"
	default:
		entity, predefined = "IFCCOLUMN", "COLUMN"
	}
	return b.f.add(entity, str(b.guids.next("element/%d", i)), unset, str(s.Name), unset, unset, placement.String(), shape.String(), unset, enum(predefined))
}
