package tables

// Aggregate groups line items by product name, preserving first-occurrence
// order so ticket lines render deterministically. A repeated product
// increments the count by one and accumulates its price into the subtotal;
// the unit price stays fixed from the first occurrence even if a later
// duplicate carries a different price.
func Aggregate(items []LineItem) []AggregatedEntry {
	entries := make([]AggregatedEntry, 0, len(items))
	indexByProduct := make(map[string]int, len(items))

	for _, item := range items {
		if position, seen := indexByProduct[item.Product]; seen {
			entries[position].Count++
			entries[position].Subtotal += item.UnitPrice
			continue
		}
		indexByProduct[item.Product] = len(entries)
		entries = append(entries, AggregatedEntry{
			Product:   item.Product,
			Count:     1,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.UnitPrice,
		})
	}

	return entries
}

// Total sums price times quantity across line items. A missing quantity
// counts as one.
func Total(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		total += item.UnitPrice * float64(quantity)
	}
	return total
}
