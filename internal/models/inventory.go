package models

import "strings"

// InventoryItem is one ingredient in the fridge
type InventoryItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Inventory holds the fridge contents in the order ingredients were first
// added. Quantities are always positive; an entry that drops to zero is
// removed.
type Inventory struct {
	Items []InventoryItem `json:"items"`
}

// MaxQuantity is the largest quantity a single ingredient can hold.
const MaxQuantity = 9999

// NewInventory returns an empty fridge.
func NewInventory() Inventory {
	return Inventory{Items: make([]InventoryItem, 0)}
}

// Set stores quantity for name, overwriting an existing entry.
func (inv *Inventory) Set(name string, quantity int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invalid("name", "ingredient name must not be blank")
	}
	if quantity < 1 {
		return Invalid("quantity", "quantity must be at least 1, got %d", quantity)
	}
	if quantity > MaxQuantity {
		return Invalid("quantity", "quantity must be at most %d, got %d", MaxQuantity, quantity)
	}

	if i := inv.index(name); i >= 0 {
		inv.Items[i].Quantity = quantity
		return nil
	}
	inv.Items = append(inv.Items, InventoryItem{Name: name, Quantity: quantity})
	return nil
}

// Increment adds one unit of an existing ingredient.
func (inv *Inventory) Increment(name string) error {
	i := inv.index(strings.TrimSpace(name))
	if i < 0 {
		return Invalid("name", "ingredient %q is not in the fridge", name)
	}
	if inv.Items[i].Quantity >= MaxQuantity {
		return Invalid("quantity", "%s already holds the maximum of %d", inv.Items[i].Name, MaxQuantity)
	}
	inv.Items[i].Quantity++
	return nil
}

// Decrement removes one unit of an existing ingredient, dropping the entry
// once nothing is left.
func (inv *Inventory) Decrement(name string) error {
	i := inv.index(strings.TrimSpace(name))
	if i < 0 {
		return Invalid("name", "ingredient %q is not in the fridge", name)
	}
	inv.Items[i].Quantity--
	if inv.Items[i].Quantity <= 0 {
		inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
	}
	return nil
}

// Quantity returns the stored quantity, or 0 when name is absent.
func (inv Inventory) Quantity(name string) int {
	if i := inv.index(name); i >= 0 {
		return inv.Items[i].Quantity
	}
	return 0
}

// Has reports whether name is in the fridge.
func (inv Inventory) Has(name string) bool {
	return inv.index(name) >= 0
}

// Names returns ingredient names in fridge order.
func (inv Inventory) Names() []string {
	names := make([]string, len(inv.Items))
	for i, item := range inv.Items {
		names[i] = item.Name
	}
	return names
}

// Total sums the quantities of every ingredient.
func (inv Inventory) Total() int {
	total := 0
	for _, item := range inv.Items {
		total += item.Quantity
	}
	return total
}

// Len returns the number of distinct ingredients.
func (inv Inventory) Len() int {
	return len(inv.Items)
}

// Clone returns a copy that shares no memory with inv.
func (inv Inventory) Clone() Inventory {
	items := make([]InventoryItem, len(inv.Items))
	copy(items, inv.Items)
	return Inventory{Items: items}
}

func (inv Inventory) index(name string) int {
	for i, item := range inv.Items {
		if item.Name == name {
			return i
		}
	}
	return -1
}
