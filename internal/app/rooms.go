package app

import "safar_travel/internal/domain"

// AllocateRooms greedily packs travelers into rooms of at most 2 adults
// and 2 children each. Every adult and child is housed; the allocation
// does not try to minimize the room count globally. Infants share rooms
// and are not allocated.
func AllocateRooms(adults, children int) []domain.RoomOccupancy {
	var rooms []domain.RoomOccupancy
	for adults > 0 || children > 0 {
		r := domain.RoomOccupancy{
			Adults:   min2(adults),
			Children: min2(children),
		}
		adults -= r.Adults
		children -= r.Children
		rooms = append(rooms, r)
	}
	return rooms
}

func min2(n int) int {
	if n > 2 {
		return 2
	}
	if n < 0 {
		return 0
	}
	return n
}
