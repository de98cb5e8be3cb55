package tracker

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dukerupert/questpet/internal/apperr"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/pet"
	"github.com/dukerupert/questpet/internal/preset"
	"github.com/dukerupert/questpet/internal/quest"
	"github.com/dukerupert/questpet/internal/store"
)

// AddQuest validates d and stores the new quest for d.UserID.
func (s *Service) AddQuest(d quest.Draft) (*model.Quest, error) {
	q, err := quest.New(d, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	created, err := store.NewQuestStore(s.db).Create(q)
	if err != nil {
		return nil, err
	}
	s.localizeQuest(created)
	s.logger.Info("quest added", "user_id", created.UserID, "quest_id", created.ID, "type", created.Type)
	return created, nil
}

// Presets returns the built-in starter quests.
func (s *Service) Presets() ([]preset.Quest, error) {
	return preset.Catalog()
}

// AdoptPresets copies every preset named in selection to userID.
func (s *Service) AdoptPresets(userID int64, selection string) ([]model.Quest, error) {
	catalog, err := preset.Catalog()
	if err != nil {
		return nil, err
	}
	picked := preset.Select(catalog, selection)
	now := s.now()

	adopted := make([]model.Quest, 0, len(picked))
	err = s.inTx(func(st stores) error {
		if u, err := st.users.GetByID(userID); err != nil {
			return err
		} else if u == nil {
			return apperr.NotFound("user", userID)
		}
		for _, p := range picked {
			q, err := quest.New(p.Draft(userID), now, s.loc)
			if err != nil {
				return fmt.Errorf("preset %q: %w", p.Description, err)
			}
			created, err := st.quests.Create(q)
			if err != nil {
				return err
			}
			adopted = append(adopted, *created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("presets adopted", "user_id", userID, "count", len(adopted))
	return s.localizeQuests(adopted), nil
}

// owned loads quest id and checks it belongs to userID. Someone else's
// quest reads as missing.
func owned(st stores, userID, id int64) (*model.Quest, error) {
	q, err := st.quests.GetByID(id)
	if err != nil {
		return nil, err
	}
	if q == nil || q.UserID != userID {
		return nil, apperr.NotFound("quest", id)
	}
	return q, nil
}

func (s *Service) UpdateQuestDescription(userID, id int64, description string) (*model.Quest, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.Invalid("description", "is required")
	}
	var q *model.Quest
	err := s.inTx(func(st stores) error {
		var err error
		if q, err = owned(st, userID, id); err != nil {
			return err
		}
		if err := st.quests.UpdateDescription(id, description); err != nil {
			return err
		}
		q.Description = description
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.localizeQuest(q)
	return q, nil
}

func (s *Service) DeleteQuest(userID, id int64) error {
	err := s.inTx(func(st stores) error {
		if _, err := owned(st, userID, id); err != nil {
			return err
		}
		return st.quests.Delete(id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("quest deleted", "user_id", userID, "quest_id", id)
	return nil
}

type CompleteResult struct {
	Quest  *model.Quest
	Reward quest.RewardKind
	Pet    *model.Pet
}

// CompleteQuest marks the quest done and stocks the pet's pantry with the
// quest's reward. The user must own a pet.
func (s *Service) CompleteQuest(userID, id int64) (*CompleteResult, error) {
	now := s.now()
	res := &CompleteResult{}

	err := s.inTx(func(st stores) error {
		q, err := owned(st, userID, id)
		if err != nil {
			return err
		}
		p, err := st.pets.GetByUserID(userID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("pet", 0)
		}

		s.localizeQuest(q)
		_, reward := quest.Complete(q, now)
		if reward != quest.RewardNothing {
			pet.Stock(p, pet.FoodKind(reward), 1)
			if err := st.pets.Save(p); err != nil {
				return err
			}
		}
		if err := st.quests.Save(q); err != nil {
			return err
		}
		res.Quest, res.Reward, res.Pet = q, reward, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("quest completed", "user_id", userID, "quest_id", id, "reward", string(res.Reward))
	return res, nil
}

func (s *Service) Quests(userID int64) ([]model.Quest, error) {
	quests, err := store.NewQuestStore(s.db).ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.localizeQuests(quests), nil
}

// CompletedQuests lists completed quests, most recently finished first.
func (s *Service) CompletedQuests(userID int64) ([]model.Quest, error) {
	quests, err := store.NewQuestStore(s.db).ListByUserAndStatus(userID, model.StatusCompleted)
	if err != nil {
		return nil, err
	}
	return s.localizeQuests(quests), nil
}

type questSource []model.Quest

func (q questSource) String(i int) string { return q[i].Description }
func (q questSource) Len() int            { return len(q) }

// SearchQuests fuzzy-matches pattern against the user's quest
// descriptions, best match first. An empty pattern lists everything.
func (s *Service) SearchQuests(userID int64, pattern string) ([]model.Quest, error) {
	quests, err := s.Quests(userID)
	if err != nil {
		return nil, err
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return quests, nil
	}

	matches := fuzzy.FindFrom(pattern, questSource(quests))
	found := make([]model.Quest, 0, len(matches))
	for _, m := range matches {
		found = append(found, quests[m.Index])
	}
	return found, nil
}
