package model

// ChecklistItem is a single line on a card checklist.
// Quantity is always >= 1 and ItemValue is never negative.
type ChecklistItem struct {
	PublicID     string  `json:"publicId"`
	Title        string  `json:"title"`
	ItemValue    float64 `json:"itemValue"`
	ItemIdentity string  `json:"itemIdentity"`
	Quantity     int     `json:"quantity"`
	Wash         bool    `json:"wash"`
	Iron         bool    `json:"iron"`
	Completed    bool    `json:"completed"`
}

// Total is ItemValue × Quantity. It is derived and never persisted.
func (it ChecklistItem) Total() float64 {
	return it.ItemValue * float64(it.Quantity)
}
