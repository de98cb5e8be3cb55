package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/questpet/internal/model"
)

type PetStore struct {
	db DBTX
}

func NewPetStore(db DBTX) *PetStore {
	return &PetStore{db: db}
}

func scanPet(s scanner) (*model.Pet, error) {
	var p model.Pet
	err := s.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Kind, &p.Happiness, &p.Hunger,
		&p.FoodQuantity, &p.SpecialFoodQuantity, &p.UpdatedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const petCols = `id, user_id, name, pet_type, happiness, hunger, food_quantity, special_food_quantity, updated_at, created_at`

// Create inserts p. A user already owning a pet gets ErrConflict.
func (s *PetStore) Create(p *model.Pet, now time.Time) (*model.Pet, error) {
	result, err := s.db.Exec(
		`INSERT INTO pets (user_id, name, pet_type, happiness, hunger, food_quantity, special_food_quantity, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Kind, p.Happiness, p.Hunger, p.FoodQuantity, p.SpecialFoodQuantity, now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert pet: %w", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert pet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PetStore) GetByID(id int64) (*model.Pet, error) {
	p, err := scanPet(s.db.QueryRow(`SELECT `+petCols+` FROM pets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return p, nil
}

func (s *PetStore) GetByUserID(userID int64) (*model.Pet, error) {
	p, err := scanPet(s.db.QueryRow(`SELECT `+petCols+` FROM pets WHERE user_id = ?`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pet by user: %w", err)
	}
	return p, nil
}

// Save writes back the mutable fields of p.
func (s *PetStore) Save(p *model.Pet) error {
	_, err := s.db.Exec(
		`UPDATE pets SET name = ?, pet_type = ?, happiness = ?, hunger = ?, food_quantity = ?, special_food_quantity = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Kind, p.Happiness, p.Hunger, p.FoodQuantity, p.SpecialFoodQuantity, p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("save pet: %w", err)
	}
	return nil
}

func (s *PetStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM pets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return nil
}
