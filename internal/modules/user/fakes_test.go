package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/delordemm1/realestate-api/internal/cache"
	"github.com/delordemm1/realestate-api/internal/config"
	"github.com/delordemm1/realestate-api/internal/notification"
	"github.com/delordemm1/realestate-api/internal/notification/templates"
	"github.com/delordemm1/realestate-api/internal/session"
	"github.com/delordemm1/realestate-api/internal/token"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	bcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// --- in-memory repository ---

type memState struct {
	users           map[string]User
	profiles        map[string]Profile
	codes           []VerificationCode
	history         []PasswordHistory
	sessionsDeleted map[string]int
	nextCodeID      int64
	nextHistoryID   int64
}

func (s memState) clone() memState {
	out := memState{
		users:           make(map[string]User, len(s.users)),
		profiles:        make(map[string]Profile, len(s.profiles)),
		codes:           append([]VerificationCode(nil), s.codes...),
		history:         append([]PasswordHistory(nil), s.history...),
		sessionsDeleted: make(map[string]int, len(s.sessionsDeleted)),
		nextCodeID:      s.nextCodeID,
		nextHistoryID:   s.nextHistoryID,
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.profiles {
		out.profiles[k] = v
	}
	for k, v := range s.sessionsDeleted {
		out.sessionsDeleted[k] = v
	}
	return out
}

type memRepo struct {
	state memState
	// failNext, when set, is returned by the next repository call.
	failNext error
}

func newMemRepo() *memRepo {
	return &memRepo{state: memState{
		users:           map[string]User{},
		profiles:        map[string]Profile{},
		sessionsDeleted: map[string]int{},
	}}
}

func (r *memRepo) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *memRepo) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	snapshot := r.state.clone()
	if err := fn(r); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	if err := r.takeFailure(); err != nil {
		return err
	}
	for _, existing := range r.state.users {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	r.state.users[u.ID] = *u
	return nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	for _, u := range r.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) FindByID(_ context.Context, id string) (*User, error) {
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := r.state.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memRepo) Update(_ context.Context, u *User) error {
	existing, ok := r.state.users[u.ID]
	if !ok {
		return ErrUserNotFound
	}
	existing.IsActive = u.IsActive
	existing.IsSeller = u.IsSeller
	existing.Points = u.Points
	existing.UpdatedAt = u.UpdatedAt
	r.state.users[u.ID] = existing
	return nil
}

func (r *memRepo) UpdatePassword(_ context.Context, userID, hash string, at time.Time) error {
	u, ok := r.state.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = at
	r.state.users[userID] = u
	return nil
}

func (r *memRepo) GetOrCreateProfile(_ context.Context, userID string) (*Profile, error) {
	p, ok := r.state.profiles[userID]
	if !ok {
		p = Profile{UserID: userID}
		r.state.profiles[userID] = p
	}
	return &p, nil
}

func (r *memRepo) FindProfile(_ context.Context, userID string) (*Profile, error) {
	p, ok := r.state.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (r *memRepo) UpdateProfile(_ context.Context, p *Profile) error {
	if _, ok := r.state.profiles[p.UserID]; !ok {
		return ErrProfileNotFound
	}
	r.state.profiles[p.UserID] = *p
	return nil
}

func (r *memRepo) CountVerificationCodesSince(_ context.Context, userID string, purpose VerificationPurpose, since time.Time) (int, error) {
	if err := r.takeFailure(); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range r.state.codes {
		if c.UserID == userID && c.Purpose == purpose && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) PurgeConsumedVerificationCodes(_ context.Context, userID string, purpose VerificationPurpose, before time.Time) error {
	kept := r.state.codes[:0:0]
	for _, c := range r.state.codes {
		if c.UserID == userID && c.Purpose == purpose && c.ConsumedAt != nil && c.CreatedAt.Before(before) {
			continue
		}
		kept = append(kept, c)
	}
	r.state.codes = kept
	return nil
}

func (r *memRepo) SupersedeVerificationCodes(_ context.Context, userID string, purpose VerificationPurpose, at time.Time) error {
	for i := range r.state.codes {
		c := &r.state.codes[i]
		if c.UserID == userID && c.Purpose == purpose && c.ConsumedAt == nil {
			t := at
			c.ConsumedAt = &t
		}
	}
	return nil
}

func (r *memRepo) CreateVerificationCode(_ context.Context, vc *VerificationCode) error {
	for _, c := range r.state.codes {
		if c.UserID == vc.UserID && c.Purpose == vc.Purpose && c.ConsumedAt == nil {
			return errors.New("duplicate key value violates unique constraint \"uq_verification_codes_live\"")
		}
	}
	r.state.nextCodeID++
	vc.ID = r.state.nextCodeID
	r.state.codes = append(r.state.codes, *vc)
	return nil
}

func (r *memRepo) GetLatestLiveVerificationCode(_ context.Context, userID string, purpose VerificationPurpose) (*VerificationCode, error) {
	for i := len(r.state.codes) - 1; i >= 0; i-- {
		c := r.state.codes[i]
		if c.UserID == userID && c.Purpose == purpose && c.ConsumedAt == nil {
			return &c, nil
		}
	}
	return nil, ErrCodeNotFound
}

func (r *memRepo) GetLiveVerificationCodeByHash(ctx context.Context, userID string, purpose VerificationPurpose, codeHash string) (*VerificationCode, error) {
	c, err := r.GetLatestLiveVerificationCode(ctx, userID, purpose)
	if err != nil || c.CodeHash != codeHash {
		return nil, ErrCodeNotFound
	}
	return c, nil
}

func (r *memRepo) IncrementVerificationAttempt(_ context.Context, id int64) (int, int, error) {
	for i := range r.state.codes {
		c := &r.state.codes[i]
		if c.ID == id && c.ConsumedAt == nil && c.Attempts < c.MaxAttempts {
			c.Attempts++
			return c.Attempts, c.MaxAttempts, nil
		}
	}
	return 0, 0, ErrCodeNotFound
}

func (r *memRepo) ConsumeVerificationCode(_ context.Context, id int64, at time.Time) error {
	for i := range r.state.codes {
		c := &r.state.codes[i]
		if c.ID == id && c.ConsumedAt == nil {
			t := at
			c.ConsumedAt = &t
			return nil
		}
	}
	return ErrCodeNotFound
}

func (r *memRepo) AppendPasswordHistory(_ context.Context, userID, hash string, at time.Time) error {
	r.state.nextHistoryID++
	r.state.history = append(r.state.history, PasswordHistory{ID: r.state.nextHistoryID, UserID: userID, PasswordHash: hash, CreatedAt: at})
	return nil
}

func (r *memRepo) TrimPasswordHistory(ctx context.Context, userID string, keep int) error {
	newest, _ := r.ListPasswordHistory(ctx, userID, keep)
	keepIDs := map[int64]bool{}
	for _, h := range newest {
		keepIDs[h.ID] = true
	}
	kept := r.state.history[:0:0]
	for _, h := range r.state.history {
		if h.UserID != userID || keepIDs[h.ID] {
			kept = append(kept, h)
		}
	}
	r.state.history = kept
	return nil
}

func (r *memRepo) ListPasswordHistory(_ context.Context, userID string, limit int) ([]PasswordHistory, error) {
	var out []PasswordHistory
	for _, h := range r.state.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) DeleteUserSessions(_ context.Context, userID string) error {
	r.state.sessionsDeleted[userID]++
	return nil
}

// codesFor returns every stored code of the pair, oldest first.
func (r *memRepo) codesFor(userID string, purpose VerificationPurpose) []VerificationCode {
	var out []VerificationCode
	for _, c := range r.state.codes {
		if c.UserID == userID && c.Purpose == purpose {
			out = append(out, c)
		}
	}
	return out
}

func (r *memRepo) liveCodes(userID string, purpose VerificationPurpose) []VerificationCode {
	var out []VerificationCode
	for _, c := range r.codesFor(userID, purpose) {
		if c.ConsumedAt == nil {
			out = append(out, c)
		}
	}
	return out
}

// --- lock, sessions, clock, notifier ---

type fakeLocker struct {
	held map[string]bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	if l.held[key] {
		return nil, cache.ErrLockHeld
	}
	l.held[key] = true
	return func(context.Context) error {
		delete(l.held, key)
		return nil
	}, nil
}

type fakeSessions struct {
	next     int
	sessions map[string]string
}

func newFakeSessions() *fakeSessions { return &fakeSessions{sessions: map[string]string{}} }

func (f *fakeSessions) CreateAuthSession(_ context.Context, userID, _, _ string) (string, error) {
	f.next++
	sid := fmt.Sprintf("auth:%d", f.next)
	f.sessions[sid] = userID
	return sid, nil
}

func (f *fakeSessions) GetAndExtend(_ context.Context, sessionID string) (string, error) {
	userID, ok := f.sessions[sessionID]
	if !ok {
		return "", session.ErrNotFound
	}
	return userID, nil
}

func (f *fakeSessions) Delete(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessions) DeleteAllForUser(_ context.Context, userID string) error {
	for sid, uid := range f.sessions {
		if uid == userID {
			delete(f.sessions, sid)
		}
	}
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// sent returns every notification passed to Send, in order.
func (m *mockNotifier) sent() []notification.Notification {
	var out []notification.Notification
	for _, call := range m.Calls {
		out = append(out, call.Arguments.Get(1).(notification.Notification))
	}
	return out
}

// --- service harness ---

type harness struct {
	svc      *service
	repo     *memRepo
	notifier *mockNotifier
	locker   *fakeLocker
	sessions *fakeSessions
	clock    *fakeClock
	tokens   *token.Issuer
	codes    []string
}

const (
	testSupportEmail = "help@realestate.local"
	testPassword     = "OldPassw0rd!"
)

// newHarness builds a service whose code generator returns "123456" unless
// h.codes holds queued values.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:     newMemRepo(),
		notifier: &mockNotifier{},
		locker:   newFakeLocker(),
		sessions: newFakeSessions(),
		clock:    &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	h.tokens = token.NewIssuer("test-secret", time.Hour)

	cfg := &config.Config{
		SMTP: config.SMTPConfig{From: testSupportEmail},
		Verification: config.VerificationConfig{
			TTLMinutes:             15,
			MaxAttempts:            5,
			RateLimitCount:         3,
			RateLimitWindowMinutes: 60,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(&Config{
		Repo:      h.repo,
		Logger:    logger,
		Config:    cfg,
		Notifier:  h.notifier,
		Templates: templates.NewEngine(templates.Config{}, logger),
		Sessions:  h.sessions,
		Tokens:    h.tokens,
		Locker:    h.locker,
		Now:       h.clock.Now,
		GenerateCode: func() (string, error) {
			if len(h.codes) == 0 {
				return "123456", nil
			}
			code := h.codes[0]
			h.codes = h.codes[1:]
			return code, nil
		},
	})
	h.svc = svc.(*service)
	return h
}

// acceptEmails makes every Send succeed.
func (h *harness) acceptEmails() {
	h.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)
}

// seedUser stores a user with testPassword.
func (h *harness) seedUser(t *testing.T, email string, active bool) *User {
	t.Helper()
	hash, err := hashPassword(testPassword)
	require.NoError(t, err)
	u := &User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: hash,
		IsActive:     active,
		Points:       signupPoints,
		CreatedAt:    h.clock.Now(),
		UpdatedAt:    h.clock.Now(),
	}
	require.NoError(t, h.repo.Create(context.Background(), u))
	return u
}

func (h *harness) user(t *testing.T, id string) User {
	t.Helper()
	u, ok := h.repo.state.users[id]
	require.True(t, ok)
	return u
}
