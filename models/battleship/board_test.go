package battleship

import (
	"errors"
	"reflect"
	"testing"
)

func validFleet() map[ShipType]ShipData {
	return map[ShipType]ShipData{
		ShipTypeBattleship: {Origin: NewCoordinate(0, 0), Orientation: OrientationHorizontal},
		ShipTypeDestroyer:  {Origin: NewCoordinate(0, 1), Orientation: OrientationHorizontal},
		ShipTypeSubmarine:  {Origin: NewCoordinate(0, 2), Orientation: OrientationHorizontal},
	}
}

func TestCellCoverage(t *testing.T) {
	tests := []struct {
		name        string
		origin      Coordinate
		orientation Orientation
		size        int
		expected    []Coordinate
	}{
		{
			name:        "horizontal extends along x",
			origin:      NewCoordinate(1, 2),
			orientation: OrientationHorizontal,
			size:        3,
			expected:    []Coordinate{{1, 2}, {2, 2}, {3, 2}},
		},
		{
			name:        "vertical extends along y",
			origin:      NewCoordinate(4, 0),
			orientation: OrientationVertical,
			size:        2,
			expected:    []Coordinate{{4, 0}, {4, 1}},
		},
		{
			name:        "single cell ship is its origin",
			origin:      NewCoordinate(3, 3),
			orientation: OrientationHorizontal,
			size:        1,
			expected:    []Coordinate{{3, 3}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := CellCoverage(test.origin, test.orientation, test.size)
			if !reflect.DeepEqual(got, test.expected) {
				t.Fatalf("expected cells: %v\t got: %v", test.expected, got)
			}

			// same inputs must always produce the same cells
			again := CellCoverage(test.origin, test.orientation, test.size)
			if !reflect.DeepEqual(got, again) {
				t.Fatalf("coverage is not deterministic: %v vs %v", got, again)
			}
		})
	}
}

func TestValidatePlacementValidFleet(t *testing.T) {
	placements, err := ValidatePlacement(validFleet(), DefaultGridSize)
	if err != nil {
		t.Fatal(err)
	}

	if len(placements) != len(ShipSizes) {
		t.Fatalf("expected %d placements\t got: %d", len(ShipSizes), len(placements))
	}

	total := 0
	for shipType, placement := range placements {
		if len(placement.Cells) != ShipSizes[shipType] {
			t.Fatalf("ship %s expected %d cells\t got: %d", shipType, ShipSizes[shipType], len(placement.Cells))
		}
		for _, cell := range placement.Cells {
			if cell.Hit {
				t.Fatalf("new placement of %s has a hit cell at %v", shipType, cell.Origin)
			}
		}
		total += len(placement.Cells)
	}

	if total != TotalShipCells() {
		t.Fatalf("expected %d total cells\t got: %d", TotalShipCells(), total)
	}
}

func TestValidatePlacementOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		raw  map[ShipType]ShipData
	}{
		{
			name: "battleship hangs off the right edge",
			raw: map[ShipType]ShipData{
				ShipTypeBattleship: {Origin: NewCoordinate(2, 0), Orientation: OrientationHorizontal},
				ShipTypeDestroyer:  {Origin: NewCoordinate(0, 1), Orientation: OrientationHorizontal},
				ShipTypeSubmarine:  {Origin: NewCoordinate(0, 2), Orientation: OrientationHorizontal},
			},
		},
		{
			name: "destroyer hangs off the bottom edge",
			raw: map[ShipType]ShipData{
				ShipTypeBattleship: {Origin: NewCoordinate(0, 0), Orientation: OrientationHorizontal},
				ShipTypeDestroyer:  {Origin: NewCoordinate(1, 3), Orientation: OrientationVertical},
				ShipTypeSubmarine:  {Origin: NewCoordinate(0, 2), Orientation: OrientationHorizontal},
			},
		},
		{
			name: "negative origin",
			raw: map[ShipType]ShipData{
				ShipTypeBattleship: {Origin: NewCoordinate(-1, 0), Orientation: OrientationHorizontal},
				ShipTypeDestroyer:  {Origin: NewCoordinate(0, 1), Orientation: OrientationHorizontal},
				ShipTypeSubmarine:  {Origin: NewCoordinate(0, 2), Orientation: OrientationHorizontal},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ValidatePlacement(test.raw, DefaultGridSize)
			if err == nil {
				t.Fatal("expected out of bounds error, got nil")
			}

			var pe *PlacementError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PlacementError\t got: %T", err)
			}
			if pe.Reason != PlacementOutOfBounds {
				t.Fatalf("expected reason %q\t got: %q", PlacementOutOfBounds, pe.Reason)
			}
		})
	}
}

func TestValidatePlacementOverlapNamesCell(t *testing.T) {
	raw := map[ShipType]ShipData{
		ShipTypeBattleship: {Origin: NewCoordinate(0, 0), Orientation: OrientationHorizontal},
		ShipTypeDestroyer:  {Origin: NewCoordinate(2, 0), Orientation: OrientationVertical},
		ShipTypeSubmarine:  {Origin: NewCoordinate(0, 2), Orientation: OrientationHorizontal},
	}

	_, err := ValidatePlacement(raw, DefaultGridSize)
	if err == nil {
		t.Fatal("expected overlap error, got nil")
	}

	var pe *PlacementError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PlacementError\t got: %T", err)
	}
	if pe.Reason != PlacementOverlap {
		t.Fatalf("expected reason %q\t got: %q", PlacementOverlap, pe.Reason)
	}
	if pe.Cell != NewCoordinate(2, 0) {
		t.Fatalf("expected offending cell [2, 0]\t got: %v", pe.Cell)
	}
}

func TestValidatePlacementMiscount(t *testing.T) {
	// submarine missing entirely
	raw := map[ShipType]ShipData{
		ShipTypeBattleship: {Origin: NewCoordinate(0, 0), Orientation: OrientationHorizontal},
		ShipTypeDestroyer:  {Origin: NewCoordinate(0, 1), Orientation: OrientationHorizontal},
	}

	_, err := ValidatePlacement(raw, DefaultGridSize)
	if err == nil {
		t.Fatal("expected miscount error, got nil")
	}

	var pe *PlacementError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PlacementError\t got: %T", err)
	}
	if pe.Reason != PlacementMiscount {
		t.Fatalf("expected reason %q\t got: %q", PlacementMiscount, pe.Reason)
	}
	if pe.Expected != TotalShipCells() {
		t.Fatalf("expected cell count %d\t got: %d", TotalShipCells(), pe.Expected)
	}
}

func TestExpandPositionsKeepsInvalidLayout(t *testing.T) {
	raw := map[ShipType]ShipData{
		ShipTypeBattleship: {Origin: NewCoordinate(0, 0), Orientation: OrientationHorizontal},
		ShipTypeDestroyer:  {Origin: NewCoordinate(2, 0), Orientation: OrientationVertical},
		ShipTypeSubmarine:  {Origin: NewCoordinate(0, 2), Orientation: OrientationHorizontal},
	}

	expanded := ExpandPositions(raw)
	if len(expanded) != 3 {
		t.Fatalf("expected 3 placements\t got: %d", len(expanded))
	}
	for shipType, placement := range expanded {
		if len(placement.Cells) != ShipSizes[shipType] {
			t.Fatalf("ship %s expected %d cells\t got: %d", shipType, ShipSizes[shipType], len(placement.Cells))
		}
	}
}
