package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dukerupert/questpet/internal/auth"
	"github.com/dukerupert/questpet/internal/backup"
	"github.com/dukerupert/questpet/internal/clock"
	"github.com/dukerupert/questpet/internal/database"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/tracker"
)

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testApp struct {
	t       *testing.T
	handler http.Handler
	clock   *clock.Fake
	srv     *Server
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setupAppWith(t, Options{SessionTTL: time.Hour})
}

func setupAppWith(t *testing.T, opts Options) *testApp {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFake(testStart)
	svc := tracker.New(db, clk, tracker.Options{}, logger)
	srv := New(svc, clk, opts, logger)
	return &testApp{t: t, handler: srv.Router(), clock: clk, srv: srv}
}

func (a *testApp) do(method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.1:1234"
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// signUp registers and logs in username, returning the session cookie.
func (a *testApp) signUp(username string) *http.Cookie {
	a.t.Helper()
	rec := a.do("POST", "/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2",
	}, nil)
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register: status = %d body = %s", rec.Code, rec.Body)
	}
	rec = a.do("POST", "/login", map[string]string{"username": username, "password": "hunter2"}, nil)
	if rec.Code != http.StatusOK {
		a.t.Fatalf("login: status = %d body = %s", rec.Code, rec.Body)
	}
	return sessionCookie(a.t, rec)
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	rec := app.do("GET", "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	app := setupApp(t)
	for _, path := range []string{"/home", "/api/quests", "/api/pet"} {
		rec := app.do("GET", path, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestRegisterErrors(t *testing.T) {
	app := setupApp(t)
	app.signUp("alice")

	rec := app.do("POST", "/register", map[string]string{
		"username": "alice", "email": "x@example.com", "password": "pw",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status = %d, want 409", rec.Code)
	}

	rec = app.do("POST", "/register", map[string]string{
		"username": "bob", "email": "not-an-email", "password": "pw",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad email: status = %d, want 400", rec.Code)
	}

	rec = app.do("POST", "/login", map[string]string{"username": "alice", "password": "nope"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}
}

func TestLoginOnboardingFlow(t *testing.T) {
	app := setupApp(t)
	app.do("POST", "/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "hunter2",
	}, nil)

	rec := app.do("POST", "/login", map[string]string{"username": "alice", "password": "hunter2"}, nil)
	login := decode[struct {
		Next string `json:"next"`
	}](t, rec)
	if login.Next != tracker.NextCreatePet {
		t.Errorf("next = %q, want %q", login.Next, tracker.NextCreatePet)
	}
	session := sessionCookie(t, rec)

	rec = app.do("POST", "/create", map[string]string{"pet_name": "Mochi", "pet_type": "cat"}, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create pet: status = %d body = %s", rec.Code, rec.Body)
	}

	rec = app.do("GET", "/api/presets", nil, session)
	presets := decode[[]struct {
		Description string `json:"description"`
	}](t, rec)
	if len(presets) == 0 {
		t.Fatal("expected presets")
	}

	rec = app.do("POST", "/create_quests", map[string][]string{
		"selection": {presets[0].Description, presets[1].Description},
	}, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("adopt presets: status = %d body = %s", rec.Code, rec.Body)
	}
	if adopted := decode[[]model.Quest](t, rec); len(adopted) != 2 {
		t.Errorf("adopted %d quests, want 2", len(adopted))
	}

	rec = app.do("POST", "/login", map[string]string{"username": "alice", "password": "hunter2"}, nil)
	login = decode[struct {
		Next string `json:"next"`
	}](t, rec)
	if login.Next != tracker.NextHome {
		t.Errorf("next = %q, want %q", login.Next, tracker.NextHome)
	}

	rec = app.do("GET", "/home", nil, session)
	home := decode[struct {
		Username string        `json:"username"`
		Pet      *model.Pet    `json:"pet"`
		Quests   []model.Quest `json:"quests"`
	}](t, rec)
	if home.Username != "alice" || home.Pet == nil || len(home.Quests) != 2 {
		t.Errorf("home = %+v", home)
	}
}

func TestQuestAPI(t *testing.T) {
	app := setupApp(t)
	session := app.signUp("alice")
	app.do("POST", "/create", map[string]string{"pet_name": "Mochi", "pet_type": "cat"}, session)

	rec := app.do("POST", "/api/quests", map[string]any{
		"description": "Water the plants",
		"quest_type":  "daily",
		"repeat":      true,
	}, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quest: status = %d body = %s", rec.Code, rec.Body)
	}
	q := decode[model.Quest](t, rec)
	if q.Reward != 6 || q.Status != model.StatusUncompleted {
		t.Errorf("quest = %+v", q)
	}

	rec = app.do("POST", "/api/quests", map[string]any{"description": "x", "quest_type": "hourly"}, session)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type: status = %d, want 400", rec.Code)
	}

	path := "/api/quests/" + itoa(q.ID)
	rec = app.do("PUT", path, map[string]string{"description": "Water the garden"}, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d body = %s", rec.Code, rec.Body)
	}

	rec = app.do("GET", "/api/quests/search?q=gardn", nil, session)
	if found := decode[[]model.Quest](t, rec); len(found) != 1 {
		t.Errorf("search found %d quests, want 1", len(found))
	}

	rec = app.do("POST", path+"/complete", nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d body = %s", rec.Code, rec.Body)
	}
	done := decode[struct {
		Reward       string `json:"reward"`
		FoodQuantity int    `json:"food_quantity"`
	}](t, rec)
	if done.Reward != "food" || done.FoodQuantity != 1 {
		t.Errorf("complete = %+v", done)
	}

	rec = app.do("GET", "/api/quests/completed", nil, session)
	if completed := decode[[]model.Quest](t, rec); len(completed) != 1 {
		t.Errorf("completed = %d quests, want 1", len(completed))
	}

	rec = app.do("DELETE", path, nil, session)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d", rec.Code)
	}
	rec = app.do("DELETE", path, nil, session)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
	rec = app.do("DELETE", "/api/quests/abc", nil, session)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

func TestCreateQuestRepeatDefault(t *testing.T) {
	app := setupApp(t)
	session := app.signUp("alice")

	rec := app.do("POST", "/api/quests", map[string]any{"description": "Stretch", "quest_type": "daily"}, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body = %s", rec.Code, rec.Body)
	}
	if q := decode[model.Quest](t, rec); !q.Repeat {
		t.Error("quest created without repeat should repeat")
	}

	rec = app.do("POST", "/api/quests", map[string]any{"description": "Renew passport", "quest_type": "none", "repeat": false}, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body = %s", rec.Code, rec.Body)
	}
	if q := decode[model.Quest](t, rec); q.Repeat {
		t.Error("explicit repeat=false was ignored")
	}

	rec = app.do("GET", "/api/quests", nil, session)
	stored := decode[[]model.Quest](t, rec)
	if len(stored) != 2 {
		t.Fatalf("stored %d quests, want 2", len(stored))
	}
	for _, q := range stored {
		if want := q.Description == "Stretch"; q.Repeat != want {
			t.Errorf("stored %q repeat = %v, want %v", q.Description, q.Repeat, want)
		}
	}
}

func TestQuestsAreScopedToUser(t *testing.T) {
	app := setupApp(t)
	alice := app.signUp("alice")
	bob := app.signUp("bob")

	rec := app.do("POST", "/api/quests", map[string]any{"description": "Secret", "quest_type": "none"}, alice)
	q := decode[model.Quest](t, rec)

	rec = app.do("PUT", "/api/quests/"+itoa(q.ID), map[string]string{"description": "Mine now"}, bob)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bob update: status = %d, want 404", rec.Code)
	}
	rec = app.do("GET", "/api/quests", nil, bob)
	if quests := decode[[]model.Quest](t, rec); len(quests) != 0 {
		t.Errorf("bob sees %d quests", len(quests))
	}
}

func TestPetAPI(t *testing.T) {
	app := setupApp(t)
	session := app.signUp("alice")

	rec := app.do("GET", "/api/pet", nil, session)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no pet: status = %d, want 404", rec.Code)
	}

	app.do("POST", "/create", map[string]string{"pet_name": "Mochi", "pet_type": "cat"}, session)
	rec = app.do("POST", "/create", map[string]string{"pet_name": "Taro", "pet_type": "dog"}, session)
	if rec.Code != http.StatusConflict {
		t.Errorf("second pet: status = %d, want 409", rec.Code)
	}

	rec = app.do("PUT", "/api/pet/food", map[string]int{"food_quantity": 3, "special_food_quantity": -1}, session)
	food := decode[struct {
		Food    int `json:"food_quantity"`
		Special int `json:"special_food_quantity"`
	}](t, rec)
	if food.Food != 3 || food.Special != 0 {
		t.Errorf("food = %+v, want 3/0", food)
	}

	rec = app.do("POST", "/api/pet/feed", map[string]string{"type": "special"}, session)
	fed := decode[struct {
		Ate bool `json:"ate"`
	}](t, rec)
	if fed.Ate {
		t.Error("pet ate special food from an empty pantry")
	}

	rec = app.do("POST", "/api/pet/feed", nil, session)
	fed = decode[struct {
		Ate bool `json:"ate"`
	}](t, rec)
	if !fed.Ate {
		t.Error("pet should eat regular food")
	}

	rec = app.do("GET", "/api/pet/food", nil, session)
	food = decode[struct {
		Food    int `json:"food_quantity"`
		Special int `json:"special_food_quantity"`
	}](t, rec)
	if food.Food != 2 {
		t.Errorf("food = %d, want 2", food.Food)
	}

	rec = app.do("POST", "/api/pet/play", map[string]int{"amount": 5}, session)
	if p := decode[model.Pet](t, rec); p.Happiness != model.PetStatMax {
		t.Errorf("happiness = %d", p.Happiness)
	}
}

func TestLogout(t *testing.T) {
	app := setupApp(t)
	session := app.signUp("alice")

	rec := app.do("POST", "/logout", nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", rec.Code)
	}
	rec = app.do("GET", "/home", nil, session)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout: status = %d, want 401", rec.Code)
	}
}

func TestSessionExpires(t *testing.T) {
	app := setupApp(t)
	session := app.signUp("alice")

	app.clock.Advance(2 * time.Hour)
	rec := app.do("GET", "/home", nil, session)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expired session: status = %d, want 401", rec.Code)
	}

	app.srv.cleanup()
	n, err := app.srv.svc.PruneSessions()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 0 {
		t.Errorf("cleanup left %d expired sessions", n)
	}
}

func TestLoginRateLimited(t *testing.T) {
	app := setupApp(t)
	var rec *httptest.ResponseRecorder
	for i := 0; i <= authRateLimit; i++ {
		rec = app.do("POST", "/login", map[string]string{"username": "x", "password": "y"}, nil)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

type stubBackups struct {
	runs int
}

func (b *stubBackups) Status() backup.Status {
	return backup.Status{State: backup.StateIdle}
}

func (b *stubBackups) RunNow(ctx context.Context) (backup.Object, error) {
	b.runs++
	return backup.Object{Key: "questpet-20260302T090000Z.db.enc", Size: 42, TakenAt: testStart}, nil
}

func (b *stubBackups) List(ctx context.Context) ([]backup.Object, error) {
	return []backup.Object{{Key: "questpet-20260301T090000Z.db.enc", Size: 40}}, nil
}

func TestAdminBackupRoutes(t *testing.T) {
	backups := &stubBackups{}
	app := setupAppWith(t, Options{SessionTTL: time.Hour, Backups: backups})
	session := app.signUp("alice")

	rec := app.do("POST", "/api/admin/backup", nil, session)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status = %d, want 403", rec.Code)
	}

	if _, err := app.srv.svc.SetRole("alice", model.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	rec = app.do("POST", "/api/admin/backup", nil, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("backup now: status = %d body = %s", rec.Code, rec.Body)
	}
	obj := decode[backup.Object](t, rec)
	if obj.Key != "questpet-20260302T090000Z.db.enc" || backups.runs != 1 {
		t.Errorf("backup now = %+v, runs = %d", obj, backups.runs)
	}

	rec = app.do("GET", "/api/admin/backup", nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: status = %d body = %s", rec.Code, rec.Body)
	}
	got := decode[struct {
		Status  backup.Status   `json:"status"`
		History []backup.Object `json:"history"`
	}](t, rec)
	if got.Status.State != backup.StateIdle || len(got.History) != 1 {
		t.Errorf("status response = %+v", got)
	}
}

func TestAdminRoutesAbsentWithoutBackups(t *testing.T) {
	app := setupApp(t)
	session := app.signUp("alice")
	rec := app.do("GET", "/api/admin/backup", nil, session)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
