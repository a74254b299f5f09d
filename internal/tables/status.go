package tables

// DeriveStatus computes a table's occupancy from its current status, its
// order list, and the status remembered by persistent storage. Pure; no
// side effects.
//
// The orders-present rule is evaluated before the stored-status override:
// a table that has line items is occupied even when storage remembers a
// different state. The stored status only wins when the order list does
// not force a transition.
func DeriveStatus(current Status, orders []LineItem, stored Status) Status {
	if current == "" {
		current = StatusFree
	}

	switch {
	case len(orders) > 0 && (current == StatusFree || stored == StatusOccupied):
		return StatusOccupied
	case len(orders) == 0 && current == StatusOccupied:
		return StatusFree
	case stored != "" && stored != current:
		return stored
	default:
		return current
	}
}
