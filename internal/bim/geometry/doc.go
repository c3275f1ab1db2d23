// Package geometry turns detected building elements into parametric solids.
//
// Every solid is a rectangular profile extruded along +Z, positioned in world
// space by a Placement (location, extrusion axis and in-plane reference
// direction). The representation maps one to one onto an IFC swept solid.
//
// Dependency rule: geometry may import elements, sample and bim only.
package geometry
