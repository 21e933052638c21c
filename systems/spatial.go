// Package systems runs the simulation: the agent registry, the simulation
// step, the integrator and the fixed-step animator.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/herd/components"
)

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid.
// The grid is centered on the origin and covers [-extent, extent] on both
// axes; positions outside are clamped into the border cells.
type SpatialGrid struct {
	cellSize float64
	extent   float64
	cols     int
	rows     int
	cells    [][]ecs.Entity // flat grid of entity lists
}

// NewSpatialGrid creates a spatial grid covering [-extent, extent]².
func NewSpatialGrid(extent, cellSize float64) *SpatialGrid {
	cols := int(2*extent/cellSize) + 1
	rows := cols

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		extent:   extent,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float64) {
	col, row := g.cell(x, y)
	g.cells[row*g.cols+col] = append(g.cells[row*g.cols+col], e)
}

// QueryRadiusInto appends every agent within radius of (x, y) to dst in
// cell scan order and returns the updated slice. Reuse dst across calls
// to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []*components.Boid, x, y, radius float64, boids *ecs.Map1[components.Boid]) []*components.Boid {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol, centerRow := g.cell(x, y)
	radiusSq := radius * radius

	for row := max(centerRow-cellRadius, 0); row <= min(centerRow+cellRadius, g.rows-1); row++ {
		for col := max(centerCol-cellRadius, 0); col <= min(centerCol+cellRadius, g.cols-1); col++ {
			for _, e := range g.cells[row*g.cols+col] {
				b := boids.Get(e)
				if b == nil {
					continue
				}

				dx := b.Pos.X - x
				dy := b.Pos.Y - y
				if dx*dx+dy*dy <= radiusSq {
					dst = append(dst, b)
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// cell returns the clamped column and row for a world position.
func (g *SpatialGrid) cell(x, y float64) (int, int) {
	col := int((x + g.extent) / g.cellSize)
	row := int((y + g.extent) / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
