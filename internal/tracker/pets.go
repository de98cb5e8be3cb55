package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/questpet/internal/apperr"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/pet"
	"github.com/dukerupert/questpet/internal/store"
)

// DefaultPlay is how much happiness one play session adds.
const DefaultPlay = 10

// CreatePet adopts a pet for userID and marks the user onboarded.
func (s *Service) CreatePet(userID int64, name, kind string) (*model.Pet, error) {
	name, kind = strings.TrimSpace(name), strings.TrimSpace(kind)
	if name == "" {
		return nil, apperr.Invalid("pet_name", "is required")
	}
	if kind == "" {
		return nil, apperr.Invalid("pet_type", "is required")
	}

	var created *model.Pet
	err := s.inTx(func(st stores) error {
		if u, err := st.users.GetByID(userID); err != nil {
			return err
		} else if u == nil {
			return apperr.NotFound("user", userID)
		}
		var err error
		created, err = st.pets.Create(pet.New(userID, name, kind), s.now())
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("pet for user %d: %w", userID, apperr.ErrDuplicate)
		}
		if err != nil {
			return err
		}
		return st.users.SetOnboarded(userID, true)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("pet created", "user_id", userID, "pet_id", created.ID, "pet_type", created.Kind)
	return created, nil
}

// Pet returns the user's pet or a NotFoundError.
func (s *Service) Pet(userID int64) (*model.Pet, error) {
	p, err := store.NewPetStore(s.db).GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("pet", 0)
	}
	p.UpdatedAt = p.UpdatedAt.In(s.loc)
	return p, nil
}

// updatePet loads the user's pet, applies fn and saves it when fn reports
// a change. UpdatedAt is not stamped; only decay moves it.
func (s *Service) updatePet(userID int64, fn func(p *model.Pet) bool) (*model.Pet, error) {
	var p *model.Pet
	err := s.inTx(func(st stores) error {
		var err error
		if p, err = st.pets.GetByUserID(userID); err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("pet", 0)
		}
		if !fn(p) {
			return nil
		}
		return st.pets.Save(p)
	})
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = p.UpdatedAt.In(s.loc)
	return p, nil
}

type FeedResult struct {
	Pet *model.Pet
	Ate bool
}

// FeedPet spends one portion of food. An empty pantry leaves the pet as is.
func (s *Service) FeedPet(userID int64, food string) (*FeedResult, error) {
	kind, err := pet.ParseFood(food)
	if err != nil {
		return nil, apperr.Invalid("type", err.Error())
	}
	var ate bool
	p, err := s.updatePet(userID, func(p *model.Pet) bool {
		ate = pet.Feed(p, kind)
		return ate
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pet fed", "user_id", userID, "food", string(kind), "ate", ate)
	return &FeedResult{Pet: p, Ate: ate}, nil
}

func (s *Service) PlayWithPet(userID int64, amount int) (*model.Pet, error) {
	if amount <= 0 {
		amount = DefaultPlay
	}
	return s.updatePet(userID, func(p *model.Pet) bool {
		pet.Play(p, amount)
		return true
	})
}

// SetFoodQuantities overwrites the pantry. Nil leaves a quantity unchanged
// and negatives are stored as zero.
func (s *Service) SetFoodQuantities(userID int64, food, special *int) (*model.Pet, error) {
	return s.updatePet(userID, func(p *model.Pet) bool {
		if food != nil {
			p.FoodQuantity = pet.ClampQuantity(*food)
		}
		if special != nil {
			p.SpecialFoodQuantity = pet.ClampQuantity(*special)
		}
		return food != nil || special != nil
	})
}

type Home struct {
	User   *model.User
	Pet    *model.Pet
	Quests []model.Quest
}

// Home gathers what the home screen shows. Pet is nil before onboarding.
func (s *Service) Home(userID int64) (*Home, error) {
	user, err := store.NewUserStore(s.db).GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}
	p, err := store.NewPetStore(s.db).GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		p.UpdatedAt = p.UpdatedAt.In(s.loc)
	}
	quests, err := s.Quests(userID)
	if err != nil {
		return nil, err
	}
	return &Home{User: user, Pet: p, Quests: quests}, nil
}
