package orders

import (
	"strconv"
	"strings"
)

var sizeWords = map[string]bool{
	"small":    true,
	"medium":   true,
	"large":    true,
	"regular":  true,
	"standard": true,
}

// ParseLine reads a canonical order line such as "1 Zinger burger, 1 medium fries".
// Entries are comma or semicolon separated; each may start with a quantity and a
// size word. Repeated item names add up their quantities and keep the last size.
func ParseLine(line string) *ItemSet {
	set := NewItemSet()
	for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}

		qty := 1
		if n, err := strconv.Atoi(fields[0]); err == nil && n > 0 {
			qty = n
			fields = fields[1:]
		}
		size := DefaultChangeSize
		if len(fields) > 1 && sizeWords[strings.ToLower(fields[0])] {
			size = strings.ToLower(fields[0])
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}

		it := Item{Name: strings.Join(fields, " "), Status: ItemActive, Size: size, Quantity: qty}
		if prev, ok := set.Get(it.Name); ok {
			it.Name = prev.Name
			it.Quantity += prev.Quantity
		}
		set.Put(it)
	}
	return set
}

// RenderLine writes the active items of set back as one canonical order line
func RenderLine(set *ItemSet) string {
	var parts []string
	for _, it := range set.Active() {
		words := []string{strconv.Itoa(it.Quantity)}
		if it.Size != "" && it.Size != DefaultChangeSize && it.Size != DefaultAddSize {
			words = append(words, it.Size)
		}
		words = append(words, it.Name)
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, ", ")
}
