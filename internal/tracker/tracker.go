// Package tracker runs the quest and pet core against the stores. Every
// mutating call is one transaction: load, apply the pure lifecycle and
// decay rules at the clock's now, save.
package tracker

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/questpet/internal/clock"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/pet"
	"github.com/dukerupert/questpet/internal/store"
)

type Options struct {
	Location   *time.Location
	Decay      pet.DecayModel
	SessionTTL time.Duration
}

type Service struct {
	db         *sql.DB
	clock      clock.Clock
	loc        *time.Location
	decay      pet.DecayModel
	sessionTTL time.Duration
	logger     *slog.Logger
}

func New(db *sql.DB, clk clock.Clock, opts Options, logger *slog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Decay.Scale == 0 {
		opts.Decay = pet.DefaultDecay()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:         db,
		clock:      clk,
		loc:        opts.Location,
		decay:      opts.Decay,
		sessionTTL: opts.SessionTTL,
		logger:     logger,
	}
}

// Location is the canonical timezone of every instant the service returns.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// stores bundles the stores bound to one transaction.
type stores struct {
	users    *store.UserStore
	pets     *store.PetStore
	quests   *store.QuestStore
	sessions *store.SessionStore
}

func bind(db store.DBTX) stores {
	return stores{
		users:    store.NewUserStore(db),
		pets:     store.NewPetStore(db),
		quests:   store.NewQuestStore(db),
		sessions: store.NewSessionStore(db),
	}
}

// inTx runs fn in a transaction and commits if it returns nil.
func (s *Service) inTx(fn func(st stores) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(bind(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Service) localizeQuest(q *model.Quest) {
	q.DueDate = q.DueDate.In(s.loc)
	q.StartTime = q.StartTime.In(s.loc)
	if q.EndTime != nil {
		end := q.EndTime.In(s.loc)
		q.EndTime = &end
	}
}

func (s *Service) localizeQuests(quests []model.Quest) []model.Quest {
	if quests == nil {
		return []model.Quest{}
	}
	for i := range quests {
		s.localizeQuest(&quests[i])
	}
	return quests
}
