// Package ifc writes a BuildingModel as an IFC4 STEP physical file
// (ISO 10303-21).
//
// The spatial hierarchy is project -> site -> building -> storeys, and each
// element is an IfcSlab, IfcWall or IfcColumn with a swept-solid body: an
// IfcRectangleProfileDef extruded along +Z, placed by an
// IfcAxis2Placement3D. All placements are absolute; the spatial containers
// sit at the world origin.
package ifc
