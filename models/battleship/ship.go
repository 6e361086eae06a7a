package battleship

import (
	"encoding/json"
	"fmt"
)

type ShipType string

const (
	ShipTypeBattleship ShipType = "Battleship"
	ShipTypeDestroyer  ShipType = "Destroyer"
	ShipTypeSubmarine  ShipType = "Submarine"
)

// ShipSizes maps every ship type in play to the number of
// cells it occupies on the grid.
var ShipSizes = map[ShipType]int{
	ShipTypeBattleship: 4,
	ShipTypeDestroyer:  3,
	ShipTypeSubmarine:  2,
}

// AllShipTypes returns the ship types in a fixed order so that
// grid population and error reporting are deterministic.
func AllShipTypes() []ShipType {
	return []ShipType{ShipTypeBattleship, ShipTypeDestroyer, ShipTypeSubmarine}
}

// TotalShipCells is the number of grid cells a complete, valid
// fleet must occupy.
func TotalShipCells() int {
	var total int
	for _, size := range ShipSizes {
		total += size
	}
	return total
}

func (st ShipType) IsValid() bool {
	_, prs := ShipSizes[st]
	return prs
}

type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
)

func (o Orientation) IsValid() bool {
	return o == OrientationHorizontal || o == OrientationVertical
}

// Coordinate is serialized as a two element [x, y] array on the wire
// and in the shared store.
type Coordinate struct {
	X int
	Y int
}

func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinate must be a [x, y] array: %w", err)
	}
	c.X = pair[0]
	c.Y = pair[1]
	return nil
}

// ShipData is the raw client-declared placement of a single ship.
type ShipData struct {
	Origin      Coordinate  `json:"origin"`
	Orientation Orientation `json:"orientation"`
}

// ShipCell is one cell of a placed ship and whether it has been hit.
type ShipCell struct {
	Origin Coordinate `json:"origin"`
	Hit    bool       `json:"hit"`
}

// ShipPlacement is a ship placement along with its cell expansion.
type ShipPlacement struct {
	Type        ShipType    `json:"type"`
	Origin      Coordinate  `json:"origin"`
	Orientation Orientation `json:"orientation"`
	Cells       []ShipCell  `json:"cells"`
}

func (sp ShipPlacement) IsDestroyed() bool {
	for _, cell := range sp.Cells {
		if !cell.Hit {
			return false
		}
	}
	return len(sp.Cells) > 0
}

// CellCoverage expands a ship footprint into the ordered list of cells
// it covers. Horizontal placements grow along +x, vertical along +y.
func CellCoverage(origin Coordinate, orientation Orientation, size int) []Coordinate {
	cells := make([]Coordinate, 0, size)

	for i := 0; i < size; i++ {
		if orientation == OrientationHorizontal {
			cells = append(cells, NewCoordinate(origin.X+i, origin.Y))
		} else {
			cells = append(cells, NewCoordinate(origin.X, origin.Y+i))
		}
	}
	return cells
}
