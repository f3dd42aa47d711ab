package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idilsaglam/tada/internal/model"
)

// JSON card fixtures. Single file, human-readable, portable.
// Used to seed the server and to export a card from the client.

const DefaultFileName = "cards.json"

// ResolvePath returns p, or cards.json in the working directory when p
// is empty.
func ResolvePath(p string) (string, error) {
	if p != "" {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(wd, DefaultFileName), nil
}

// Load reads cards from path. A missing file is an empty set.
func Load(path string) ([]model.Card, error) {
	p, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Card{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var cards []model.Card
	if err := json.Unmarshal(b, &cards); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return cards, nil
}

func Save(path string, cards []model.Card) error {
	p, err := ResolvePath(path)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
