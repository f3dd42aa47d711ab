package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/model"
)

var ErrNotFound = errors.New("not found")

// Store is the authoritative card repository.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to postgres for postgres DSNs and to a sqlite file
// otherwise, then migrates the schema.
func Open(dsn string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&CardRecord{}, &ChecklistRecord{}, &ChecklistItemRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, log: log.With("service", "CardStore")}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) GetCard(ctx context.Context, cardID string) (*model.Card, error) {
	var rec CardRecord
	err := s.db.WithContext(ctx).
		Preload("Checklists", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, id ASC") }).
		Preload("Checklists.Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, id ASC") }).
		Where("public_id = ?", cardID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load card %s: %w", cardID, err)
	}
	return rec.toModel(), nil
}

// UpdateItem applies d to the stored item and returns the result.
func (s *Store) UpdateItem(ctx context.Context, d model.Delta) (model.ChecklistItem, error) {
	if err := d.Validate(); err != nil {
		return model.ChecklistItem{}, err
	}
	var out ChecklistItemRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ChecklistItemRecord{}).Where("public_id = ?", d.ItemID).Updates(deltaColumns(d))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("checklist item %s: %w", d.ItemID, ErrNotFound)
		}
		return tx.Where("public_id = ?", d.ItemID).First(&out).Error
	})
	if err != nil {
		return model.ChecklistItem{}, err
	}
	s.log.Debug("item updated", "item_id", d.ItemID, "fields", d.Fields())
	return out.toModel(), nil
}

func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	res := s.db.WithContext(ctx).Where("public_id = ?", itemID).Delete(&ChecklistItemRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("checklist item %s: %w", itemID, ErrNotFound)
	}
	s.log.Debug("item deleted", "item_id", itemID)
	return nil
}

// CardIDForItem resolves the card owning an item, deleted items included.
func (s *Store) CardIDForItem(ctx context.Context, itemID string) (string, error) {
	var cardID string
	err := s.db.WithContext(ctx).
		Table("checklist_item").
		Select("card.public_id").
		Joins("JOIN checklist ON checklist.id = checklist_item.checklist_id").
		Joins("JOIN card ON card.id = checklist.card_id").
		Where("checklist_item.public_id = ?", itemID).
		Limit(1).
		Scan(&cardID).Error
	if err != nil {
		return "", fmt.Errorf("resolve card for item %s: %w", itemID, err)
	}
	if cardID == "" {
		return "", fmt.Errorf("checklist item %s: %w", itemID, ErrNotFound)
	}
	return cardID, nil
}

// CreateCard stores a whole card. Missing public ids are generated.
func (s *Store) CreateCard(ctx context.Context, card *model.Card) (*model.Card, error) {
	rec := CardRecord{PublicID: orNewID(card.PublicID), Title: card.Title}
	for i, cl := range card.Checklists {
		clRec := ChecklistRecord{PublicID: orNewID(cl.PublicID), Name: cl.Name, Position: i}
		for j, it := range cl.Items {
			q := it.Quantity
			if q < 1 {
				q = 1
			}
			clRec.Items = append(clRec.Items, ChecklistItemRecord{
				PublicID:     orNewID(it.PublicID),
				Position:     j,
				Title:        it.Title,
				ItemValue:    it.ItemValue,
				ItemIdentity: it.ItemIdentity,
				Quantity:     q,
				Wash:         it.Wash,
				Iron:         it.Iron,
				Completed:    it.Completed,
			})
		}
		rec.Checklists = append(rec.Checklists, clRec)
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	return s.GetCard(ctx, rec.PublicID)
}

// ListCardIDs returns every card id, oldest first.
func (s *Store) ListCardIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&CardRecord{}).Order("id ASC").Pluck("public_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return ids, nil
}

func orNewID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.NewString()
	}
	return id
}

// Seed creates each card whose public id is not stored yet and returns
// how many were created.
func (s *Store) Seed(ctx context.Context, cards []model.Card) (int, error) {
	created := 0
	for i := range cards {
		if cards[i].PublicID != "" {
			if _, err := s.GetCard(ctx, cards[i].PublicID); err == nil {
				continue
			} else if !errors.Is(err, ErrNotFound) {
				return created, err
			}
		}
		if _, err := s.CreateCard(ctx, &cards[i]); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
