// Package orders holds the order item model and the action interpreter that
// reconciles structured add/cancel/change instructions against it.
package orders

import "strings"

// ItemStatus is the state of one item within an order
type ItemStatus string

const (
	ItemActive    ItemStatus = "active"
	ItemCancelled ItemStatus = "cancelled"
)

const (
	// DefaultChangeSize is used when a change action carries no modification
	DefaultChangeSize = "regular"
	// DefaultAddSize is the size given to items created by an add action
	DefaultAddSize = "standard"
)

// Item is one line of an order
type Item struct {
	Name     string
	Status   ItemStatus
	Size     string
	Quantity int
}

// ItemSet maps lowercase item names to items, preserving first-insertion order
type ItemSet struct {
	keys  []string
	items map[string]Item
}

// NewItemSet builds a set from items; later duplicates replace earlier ones in place
func NewItemSet(items ...Item) *ItemSet {
	s := &ItemSet{items: make(map[string]Item, len(items))}
	for _, it := range items {
		s.Put(it)
	}
	return s
}

// Key normalizes an item name into its set key
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the item stored under name
func (s *ItemSet) Get(name string) (Item, bool) {
	it, ok := s.items[Key(name)]
	return it, ok
}

// Put inserts or replaces an item, keeping its original position on replace
func (s *ItemSet) Put(it Item) {
	k := Key(it.Name)
	if _, ok := s.items[k]; !ok {
		s.keys = append(s.keys, k)
	}
	if it.Quantity == 0 {
		it.Quantity = 1
	}
	s.items[k] = it
}

// Len returns the number of distinct items
func (s *ItemSet) Len() int {
	return len(s.keys)
}

// Items returns a copy of the items in insertion order
func (s *ItemSet) Items() []Item {
	out := make([]Item, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.items[k])
	}
	return out
}

// Active returns the non-cancelled items in insertion order
func (s *ItemSet) Active() []Item {
	var out []Item
	for _, k := range s.keys {
		if it := s.items[k]; it.Status == ItemActive {
			out = append(out, it)
		}
	}
	return out
}

// Clone returns an independent copy of the set
func (s *ItemSet) Clone() *ItemSet {
	c := &ItemSet{
		keys:  append([]string(nil), s.keys...),
		items: make(map[string]Item, len(s.items)),
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

// Equal reports whether two sets hold the same items in the same order
func (s *ItemSet) Equal(o *ItemSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i, k := range s.keys {
		if o.keys[i] != k || s.items[k] != o.items[k] {
			return false
		}
	}
	return true
}
