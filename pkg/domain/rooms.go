package domain

// Buildings is the selectable building list, in display order.
var Buildings = []string{"A1", "A2", "A3", "B1", "B2"}

// Floors is the selectable floor list. The backend keys floors as "Nfloor".
var Floors = []string{"1floor", "2floor", "3floor", "4floor"}

// floorRooms maps a floor key to its room numbers. Room options are a pure
// function of the floor; the building does not narrow them.
var floorRooms = map[string][]string{
	"1floor": {"101", "102", "103", "104", "105", "106", "107", "108", "109", "110"},
	"2floor": {"201", "202", "203", "204", "205", "206", "207", "208", "209", "210"},
	"3floor": {"301", "302", "303", "304", "305", "306", "307", "308", "309", "310"},
	"4floor": {"401", "402", "403", "404", "405", "406", "407", "408", "409", "410"},
}

// RoomsForFloor returns the room options for a floor key, or nil for an
// unknown floor.
func RoomsForFloor(floor string) []string {
	return floorRooms[floor]
}

// FloorLabel strips the "floor" suffix for display, e.g. "2floor" -> "2".
func FloorLabel(floor string) string {
	if len(floor) > len("floor") && floor[len(floor)-len("floor"):] == "floor" {
		return floor[:len(floor)-len("floor")]
	}
	return floor
}
