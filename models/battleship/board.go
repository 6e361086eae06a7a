package battleship

import "fmt"

const DefaultGridSize = 5

type PlacementReason string

const (
	PlacementOutOfBounds PlacementReason = "out-of-bounds"
	PlacementOverlap     PlacementReason = "overlap"
	PlacementMiscount    PlacementReason = "miscount"
)

// PlacementError reports why a fleet placement was rejected. Cell is
// only meaningful for the out-of-bounds and overlap reasons.
type PlacementError struct {
	Reason   PlacementReason
	Cell     Coordinate
	Occupied int
	Expected int
}

func (e *PlacementError) Error() string {
	switch e.Reason {
	case PlacementOutOfBounds:
		return fmt.Sprintf("ship cell [%d, %d] is over the edge of the board", e.Cell.X, e.Cell.Y)
	case PlacementOverlap:
		return fmt.Sprintf("ships are overlapping at grid [%d, %d]", e.Cell.X, e.Cell.Y)
	default:
		return fmt.Sprintf("%d grid positions were occupied, but %d was the expected value", e.Occupied, e.Expected)
	}
}

// Board is a player's fleet. Valid is only true once the positions
// have passed ValidatePlacement.
type Board struct {
	Valid     bool                       `json:"valid"`
	Positions map[ShipType]ShipPlacement `json:"positions,omitempty"`
}

// ValidatePlacement populates an NxN occupancy grid from the declared
// ship positions and verifies that every cell stays within bounds, that
// no two ships share a cell, and that the occupied cell total matches
// the fleet size exactly. On success it returns the placements with
// their cell expansions.
func ValidatePlacement(raw map[ShipType]ShipData, gridSize int) (map[ShipType]ShipPlacement, error) {
	grid := make([][]int, gridSize)
	for i := range grid {
		grid[i] = make([]int, gridSize)
	}

	placements := make(map[ShipType]ShipPlacement, len(raw))

	for _, shipType := range AllShipTypes() {
		data, prs := raw[shipType]
		if !prs {
			continue
		}

		cells := CellCoverage(data.Origin, data.Orientation, ShipSizes[shipType])
		placement := ShipPlacement{
			Type:        shipType,
			Origin:      data.Origin,
			Orientation: data.Orientation,
			Cells:       make([]ShipCell, 0, len(cells)),
		}

		for _, cell := range cells {
			if cell.X < 0 || cell.X >= gridSize || cell.Y < 0 || cell.Y >= gridSize {
				return nil, &PlacementError{Reason: PlacementOutOfBounds, Cell: cell}
			}

			grid[cell.Y][cell.X]++
			if grid[cell.Y][cell.X] > 1 {
				return nil, &PlacementError{Reason: PlacementOverlap, Cell: cell}
			}

			placement.Cells = append(placement.Cells, ShipCell{Origin: cell})
		}

		placements[shipType] = placement
	}

	var occupied int
	for _, row := range grid {
		for _, val := range row {
			if val != 0 {
				occupied++
			}
		}
	}

	if occupied != TotalShipCells() {
		return nil, &PlacementError{
			Reason:   PlacementMiscount,
			Occupied: occupied,
			Expected: TotalShipCells(),
		}
	}

	return placements, nil
}

// ExpandPositions expands raw placements without validating them. It is
// used to retain a client's rejected positions so that the board can be
// echoed back with valid=false.
func ExpandPositions(raw map[ShipType]ShipData) map[ShipType]ShipPlacement {
	placements := make(map[ShipType]ShipPlacement, len(raw))

	for shipType, data := range raw {
		cells := CellCoverage(data.Origin, data.Orientation, ShipSizes[shipType])
		placement := ShipPlacement{
			Type:        shipType,
			Origin:      data.Origin,
			Orientation: data.Orientation,
			Cells:       make([]ShipCell, 0, len(cells)),
		}
		for _, cell := range cells {
			placement.Cells = append(placement.Cells, ShipCell{Origin: cell})
		}
		placements[shipType] = placement
	}
	return placements
}
