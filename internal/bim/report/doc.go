// Package report renders diagnostic views of a conversion: an interactive
// HTML page (go-echarts) with the elevation profile, the storey breakdown
// and a plan of element footprints, and a static PNG plan (gonum/plot) for
// embedding in tickets and CLI output.
package report
