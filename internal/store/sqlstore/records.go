package sqlstore

import (
	"time"

	"gorm.io/gorm"

	"github.com/idilsaglam/tada/internal/model"
)

type CardRecord struct {
	ID         uint              `gorm:"primaryKey"`
	PublicID   string            `gorm:"size:64;uniqueIndex;not null"`
	Title      string            `gorm:"not null"`
	Checklists []ChecklistRecord `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (CardRecord) TableName() string { return "card" }

type ChecklistRecord struct {
	ID        uint                  `gorm:"primaryKey"`
	PublicID  string                `gorm:"size:64;uniqueIndex;not null"`
	CardID    uint                  `gorm:"index;not null"`
	Name      string                `gorm:"not null"`
	Position  int                   `gorm:"not null;default:0"`
	Items     []ChecklistItemRecord `gorm:"foreignKey:ChecklistID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ChecklistRecord) TableName() string { return "checklist" }

type ChecklistItemRecord struct {
	ID           uint    `gorm:"primaryKey"`
	PublicID     string  `gorm:"size:64;uniqueIndex;not null"`
	ChecklistID  uint    `gorm:"index;not null"`
	Position     int     `gorm:"not null;default:0"`
	Title        string  `gorm:"not null"`
	ItemValue    float64 `gorm:"not null;default:0"`
	ItemIdentity string
	Quantity     int  `gorm:"not null;default:1"`
	Wash         bool `gorm:"not null;default:false"`
	Iron         bool `gorm:"not null;default:false"`
	Completed    bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (ChecklistItemRecord) TableName() string { return "checklist_item" }

func (r ChecklistItemRecord) toModel() model.ChecklistItem {
	return model.ChecklistItem{
		PublicID:     r.PublicID,
		Title:        r.Title,
		ItemValue:    r.ItemValue,
		ItemIdentity: r.ItemIdentity,
		Quantity:     r.Quantity,
		Wash:         r.Wash,
		Iron:         r.Iron,
		Completed:    r.Completed,
	}
}

func (r CardRecord) toModel() *model.Card {
	card := &model.Card{PublicID: r.PublicID, Title: r.Title, Checklists: make([]model.Checklist, 0, len(r.Checklists))}
	for _, cl := range r.Checklists {
		out := model.Checklist{PublicID: cl.PublicID, Name: cl.Name, Items: make([]model.ChecklistItem, 0, len(cl.Items))}
		for _, it := range cl.Items {
			out.Items = append(out.Items, it.toModel())
		}
		card.Checklists = append(card.Checklists, out)
	}
	return card
}

// deltaColumns maps a delta onto column updates.
func deltaColumns(d model.Delta) map[string]interface{} {
	cols := map[string]interface{}{}
	if d.Title != nil {
		cols["title"] = *d.Title
	}
	if d.ItemValue != nil {
		cols["item_value"] = *d.ItemValue
	}
	if d.Quantity != nil {
		cols["quantity"] = *d.Quantity
	}
	if d.Wash != nil {
		cols["wash"] = *d.Wash
	}
	if d.Iron != nil {
		cols["iron"] = *d.Iron
	}
	if d.Completed != nil {
		cols["completed"] = *d.Completed
	}
	return cols
}
