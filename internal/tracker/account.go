package tracker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dukerupert/questpet/internal/apperr"
	"github.com/dukerupert/questpet/internal/auth"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/pet"
	"github.com/dukerupert/questpet/internal/quest"
	"github.com/dukerupert/questpet/internal/store"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Next steps a client is sent to after logging in.
const (
	NextCreatePet = "create_pet"
	NextHome      = "home"
)

// Register creates an account. The user is not onboarded until they adopt
// a pet.
func (s *Service) Register(username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, apperr.Invalid("username", "is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperr.Invalid("email", "is not a valid address")
	}
	if password == "" {
		return nil, apperr.Invalid("password", "is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.inTx(func(st stores) error {
		if u, err := st.users.GetByUsername(username); err != nil {
			return err
		} else if u != nil {
			return fmt.Errorf("username %q: %w", username, apperr.ErrDuplicate)
		}
		if u, err := st.users.GetByEmail(email); err != nil {
			return err
		} else if u != nil {
			return fmt.Errorf("email %q: %w", email, apperr.ErrDuplicate)
		}

		var err error
		user, err = st.users.Create(username, email, hash, model.RoleUser, s.now())
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("register %q: %w", username, apperr.ErrDuplicate)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords both
// return ErrInvalidCredentials.
func (s *Service) Authenticate(username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Invalid("credentials", "username and password are required")
	}
	user, err := store.NewUserStore(s.db).GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

type LoginResult struct {
	Session *model.Session
	CheckIn *CheckInResult
	Next    string
}

// Login authenticates, runs the check-in cycle and opens a session.
func (s *Service) Login(username, password string) (*LoginResult, error) {
	user, err := s.Authenticate(username, password)
	if err != nil {
		return nil, err
	}
	checkIn, err := s.CheckIn(user.ID)
	if err != nil {
		return nil, err
	}
	sess, err := store.NewSessionStore(s.db).Create(user.ID, s.now(), s.sessionTTL)
	if err != nil {
		return nil, err
	}

	next := NextHome
	if !checkIn.User.Onboarded {
		next = NextCreatePet
	}
	return &LoginResult{Session: sess, CheckIn: checkIn, Next: next}, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (s *Service) Logout(token string) error {
	ss := store.NewSessionStore(s.db)
	sess, err := ss.GetByToken(token, s.now())
	if err != nil || sess == nil {
		return err
	}
	return ss.Delete(sess.ID)
}

// Authorize resolves a session token to its user.
func (s *Service) Authorize(token string) (auth.AuthContext, error) {
	sess, err := store.NewSessionStore(s.db).GetByToken(token, s.now())
	if err != nil {
		return auth.AuthContext{}, err
	}
	if sess == nil {
		return auth.AuthContext{}, apperr.NotFound("session", 0)
	}
	user, err := store.NewUserStore(s.db).GetByID(sess.UserID)
	if err != nil {
		return auth.AuthContext{}, err
	}
	if user == nil {
		return auth.AuthContext{}, apperr.NotFound("user", sess.UserID)
	}
	return auth.AuthContext{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: sess.ID,
	}, nil
}

// SetRole changes the role of the named user.
func (s *Service) SetRole(username, role string) (*model.User, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, apperr.Invalid("role", "must be user or admin")
	}
	var user *model.User
	err := s.inTx(func(st stores) error {
		var err error
		if user, err = st.users.GetByUsername(strings.TrimSpace(username)); err != nil {
			return err
		}
		if user == nil {
			return apperr.NotFound("user", 0)
		}
		if err := st.users.SetRole(user.ID, role); err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("role changed", "user_id", user.ID, "role", role)
	return user, nil
}

// PruneSessions deletes expired sessions.
func (s *Service) PruneSessions() (int64, error) {
	return store.NewSessionStore(s.db).DeleteExpired(s.now())
}

type CheckInResult struct {
	User       *model.User
	Pet        *model.Pet
	Quests     []model.Quest
	RolledOver int
}

// CheckIn is the once-per-login pass: roll every overdue quest over, then
// decay the pet for the time since the last check-in.
func (s *Service) CheckIn(userID int64) (*CheckInResult, error) {
	now := s.now()
	res := &CheckInResult{}

	err := s.inTx(func(st stores) error {
		user, err := st.users.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperr.NotFound("user", userID)
		}

		quests, err := st.quests.ListByUser(userID)
		if err != nil {
			return err
		}
		quests = s.localizeQuests(quests)
		rolled := 0
		for i := range quests {
			if !quest.ResetDueDate(&quests[i], now) {
				continue
			}
			if err := st.quests.Save(&quests[i]); err != nil {
				return err
			}
			rolled++
		}

		p, err := st.pets.GetByUserID(userID)
		if err != nil {
			return err
		}
		if p != nil {
			start := pet.DecayStart(user.AccountUpdated, p.UpdatedAt)
			s.decay.Apply(p, start, now, pet.StreakSignal(quests))
			if err := st.pets.Save(p); err != nil {
				return err
			}
		}

		if err := st.users.TouchAccount(userID, now); err != nil {
			return err
		}
		user.AccountUpdated = now

		res.User, res.Pet, res.Quests, res.RolledOver = user, p, quests, rolled
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check in user %d: %w", userID, err)
	}

	attrs := []any{"user_id", userID, "rolled_over", res.RolledOver}
	if res.Pet != nil {
		attrs = append(attrs, "happiness", res.Pet.Happiness, "hunger", res.Pet.Hunger)
	}
	s.logger.Info("checked in", attrs...)
	return res, nil
}
