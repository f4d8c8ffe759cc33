package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateID creates an entity id in prefix-xxxxx format (5-char hex).
func GenerateID(prefix string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("store: generate ID: %w", err)
	}
	return prefix + "-" + hex.EncodeToString(b)[:5], nil
}

// uniqueID generates an id that is not already taken by a row of model.
func (s *Store) uniqueID(prefix string, model interface{}) (string, error) {
	for i := 0; i < 10; i++ {
		id, err := GenerateID(prefix)
		if err != nil {
			return "", err
		}
		var count int64
		if err := s.db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("store: check ID collision: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("store: could not generate unique %s id after 10 attempts", prefix)
}
