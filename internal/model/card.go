package model

// Card is the aggregate the client caches and invalidates as a unit.
// Items are never cached on their own.
type Card struct {
	PublicID   string      `json:"publicId"`
	Title      string      `json:"title"`
	Checklists []Checklist `json:"checklists"`
}

type Checklist struct {
	PublicID string          `json:"publicId"`
	Name     string          `json:"name"`
	Items    []ChecklistItem `json:"items"`
}

// Clone returns a deep copy. Snapshots are built from clones so later
// writes to the cache can never reach them.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	out := &Card{PublicID: c.PublicID, Title: c.Title}
	if c.Checklists != nil {
		out.Checklists = make([]Checklist, len(c.Checklists))
		for i, cl := range c.Checklists {
			out.Checklists[i] = Checklist{PublicID: cl.PublicID, Name: cl.Name}
			if cl.Items != nil {
				out.Checklists[i].Items = append([]ChecklistItem(nil), cl.Items...)
			}
		}
	}
	return out
}

// FindItem returns the first item with the given public id.
func (c *Card) FindItem(itemID string) (ChecklistItem, bool) {
	if c == nil {
		return ChecklistItem{}, false
	}
	for _, cl := range c.Checklists {
		for _, it := range cl.Items {
			if it.PublicID == itemID {
				return it, true
			}
		}
	}
	return ChecklistItem{}, false
}

// Items flattens every checklist in order.
func (c *Card) Items() []ChecklistItem {
	if c == nil {
		return nil
	}
	var out []ChecklistItem
	for _, cl := range c.Checklists {
		out = append(out, cl.Items...)
	}
	return out
}

// Progress counts completed items against all items on the card.
func (c *Card) Progress() (done, total int) {
	for _, it := range c.Items() {
		total++
		if it.Completed {
			done++
		}
	}
	return
}

// ApplyDelta returns a new card where every item matching d.ItemID, in
// every checklist, has d's fields merged over it. The input is untouched.
func ApplyDelta(c *Card, d Delta) *Card {
	if c == nil {
		return nil
	}
	out := c.Clone()
	for i := range out.Checklists {
		items := out.Checklists[i].Items
		for j := range items {
			if items[j].PublicID == d.ItemID {
				items[j] = d.Merge(items[j])
			}
		}
	}
	return out
}

// RemoveItem returns a new card without any item whose id is itemID.
func RemoveItem(c *Card, itemID string) *Card {
	if c == nil {
		return nil
	}
	out := c.Clone()
	for i := range out.Checklists {
		kept := make([]ChecklistItem, 0, len(out.Checklists[i].Items))
		for _, it := range out.Checklists[i].Items {
			if it.PublicID != itemID {
				kept = append(kept, it)
			}
		}
		out.Checklists[i].Items = kept
	}
	return out
}
