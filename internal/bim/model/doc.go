// Package model aggregates detected elements into a BuildingModel, the
// record handed to exporters and persisted by the job store.
//
// Dependency rule: model may import geometry, elements, sample and bim.
package model
