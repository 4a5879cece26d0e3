package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/memory"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

var (
	t0     = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codeRe = regexp.MustCompile(`Your OTP is: (\d{6})`)
)

type sentMail struct {
	address, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (n *recordingNotifier) Send(_ context.Context, address, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentMail{address: address, subject: subject, body: body})
	return n.err
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()

	require.NotEmpty(t, n.sent)
	m := codeRe.FindStringSubmatch(n.sent[len(n.sent)-1].body)
	require.Len(t, m, 2)
	return m[1]
}

type suite struct {
	uc       *Usecase
	repo     repoDB
	mem      *memory.Memory
	sessions *session.Memory
	notifier *recordingNotifier
	clock    *clock.Frozen
	hmac     *hash.HMACSHA256
}

func newSuite(t *testing.T, wrap func(*memory.Memory) repoDB) *suite {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  identity:
    otp:
      ttl_seconds: 300
      max_attempts: 5
`))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	code, err := otp.NewNumeric(otp.DefaultDigits)
	require.NoError(t, err)

	sf, err := uid.NewSnowflake()
	require.NoError(t, err)

	s := &suite{
		mem:      memory.New(),
		notifier: &recordingNotifier{},
		clock:    clock.NewFrozen(t0),
		hmac:     hash.NewHMACSHA256("test-secret"),
	}
	s.sessions = session.NewMemory(s.clock, time.Hour)
	s.repo = s.mem
	if wrap != nil {
		s.repo = wrap(s.mem)
	}

	s.uc = New(Dependency{
		RepoDB:      s.repo,
		RepoSession: s.sessions,
		Notifier:    s.notifier,
		Validator:   v,
		Config:      cfg,
		Password:    hash.NewBcrypt(4, ""),
		HMAC:        s.hmac,
		Code:        code,
		UID:         sf,
		Clock:       s.clock,
		Instrument:  instrument.NewNoop(),
	})

	return s
}

// request returns a context carrying the browser session as the router would load it.
func (s *suite) request(t *testing.T) context.Context {
	t.Helper()
	sess, err := s.sessions.Load(context.Background(), "browser")
	require.NoError(t, err)
	return session.WithSession(context.Background(), sess)
}

func (s *suite) session(t *testing.T) *session.Session {
	t.Helper()
	sess, err := s.sessions.Load(context.Background(), "browser")
	require.NoError(t, err)
	return sess
}

func (s *suite) register(t *testing.T, username, email, password string) {
	t.Helper()
	require.NoError(t, s.uc.Register(s.request(t), RegisterInput{Username: username, Email: email, Password: password}))
}

func (s *suite) login(t *testing.T, username, password string) string {
	t.Helper()
	out, err := s.uc.Login(s.request(t), LoginInput{Username: username, Password: password})
	require.NoError(t, err)
	require.True(t, out.OTPSent)
	return s.notifier.lastCode(t)
}

func (s *suite) verify(t *testing.T, code string) error {
	t.Helper()
	_, err := s.uc.VerifyOTP(s.request(t), VerifyOTPInput{Code: code})
	return err
}

func wrongCode(code string) string {
	if code == "123456" {
		return "654321"
	}
	return "123456"
}

func assertBusiness(t *testing.T, err error, status int, msg string) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, status, gerr.StatusCode())
	assert.Equal(t, msg, gerr.Msg())
	return gerr
}

func TestScenario_RegisterLoginMismatchThenSuccess(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")

	code := s.login(t, "alice", "pw123")
	require.Len(t, s.notifier.sent, 1)
	mail := s.notifier.sent[0]
	assert.Equal(t, "a@x.com", mail.address)
	assert.Equal(t, "Your login OTP", mail.subject)
	assert.Equal(t, fmt.Sprintf("Hello alice,\n\nYour OTP is: %s\nIt will expire in 5 minutes.\n\nIf you didn't request this, ignore.", code), mail.body)
	assert.Regexp(t, `^[1-9]\d{5}$`, code)

	sess := s.session(t)
	assert.True(t, sess.HasPending())
	assert.False(t, sess.Authenticated())

	err := s.verify(t, wrongCode(code))
	assert.ErrorIs(t, err, entity.ErrOTPMismatch)
	gerr := assertBusiness(t, err, http.StatusUnauthorized, "Wrong OTP. Try again.")
	assert.Equal(t, map[string]string{"next": "verify", "attempts_remaining": "4"}, gerr.Fields())

	rec, err := s.mem.FindLatestUnconsumedOTP(context.Background(), sess.PendingUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Attempts)
	assert.True(t, s.session(t).HasPending(), "mismatch keeps the pending login")

	require.NoError(t, s.verify(t, code))
	sess = s.session(t)
	assert.True(t, sess.Authenticated())
	assert.False(t, sess.HasPending())

	dash, err := s.uc.Dashboard(s.request(t))
	require.NoError(t, err)
	assert.Equal(t, "alice", dash.Username)
	assert.Equal(t, "a@x.com", dash.Email)
}

func TestScenario_ExpiredAfterTTL(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	code := s.login(t, "alice", "pw123")

	s.clock.Advance(301 * time.Second)

	err := s.verify(t, code)
	assert.ErrorIs(t, err, entity.ErrOTPExpired)
	gerr := assertBusiness(t, err, http.StatusUnauthorized, "OTP expired. Please login again.")
	assert.Equal(t, "login", gerr.Fields()["next"])
	assert.False(t, s.session(t).HasPending(), "expiry forces a new login")
}

func TestVerify_AtExpiryInstantSucceeds(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	code := s.login(t, "alice", "pw123")

	s.clock.Advance(300 * time.Second)
	require.NoError(t, s.verify(t, code))
}

func TestVerify_TooManyAttemptsBeatsCorrectCode(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	code := s.login(t, "alice", "pw123")

	for i := range 5 {
		err := s.verify(t, wrongCode(code))
		require.ErrorIs(t, err, entity.ErrOTPMismatch, "attempt %d", i+1)
	}

	err := s.verify(t, code)
	assert.ErrorIs(t, err, entity.ErrOTPAttemptsExhausted)
	assertBusiness(t, err, http.StatusTooManyRequests, "Too many wrong attempts. Please login again.")
	assert.False(t, s.session(t).HasPending())
	assert.False(t, s.session(t).Authenticated())
}

func TestVerify_MalformedCodeCountsAsMismatch(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	s.login(t, "alice", "pw123")

	err := s.verify(t, "  12ab ")
	assert.ErrorIs(t, err, entity.ErrOTPMismatch)
}

func TestVerify_TrimmedCodeIsAccepted(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	code := s.login(t, "alice", "pw123")

	require.NoError(t, s.verify(t, " "+code+"\n"))
}

func TestVerify_RequiresPendingLogin(t *testing.T) {
	s := newSuite(t, nil)

	err := s.verify(t, "123456")
	assert.ErrorIs(t, err, entity.ErrPendingLoginRequired)
	assertBusiness(t, err, http.StatusUnauthorized, "Start login first.")
}

func TestVerify_EmptyCode(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	s.login(t, "alice", "pw123")

	err := s.verify(t, "   ")
	assertBusiness(t, err, http.StatusUnprocessableEntity, "Enter OTP")
	assert.True(t, s.session(t).HasPending())
}

func TestVerify_NoActiveOTPClearsPending(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	user, err := s.mem.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)

	sess := session.New("browser")
	sess.SetPending(user.ID)
	require.NoError(t, s.sessions.Save(context.Background(), sess))

	err = s.verify(t, "123456")
	assert.ErrorIs(t, err, entity.ErrOTPNoActive)
	assertBusiness(t, err, http.StatusUnauthorized, "No OTP found, request login again.")
	assert.False(t, s.session(t).HasPending())
}

func TestVerify_OnlyLatestOTPIsReachable(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")

	first := s.login(t, "alice", "pw123")
	second := s.login(t, "alice", "pw123")
	if first == second {
		t.Skip("codes collided")
	}

	assert.ErrorIs(t, s.verify(t, first), entity.ErrOTPMismatch)
	require.NoError(t, s.verify(t, second))
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")

	_, errUnknown := s.uc.Login(s.request(t), LoginInput{Username: "bob", Password: "pw123"})
	_, errWrong := s.uc.Login(s.request(t), LoginInput{Username: "alice", Password: "nope"})

	assertBusiness(t, errUnknown, http.StatusUnauthorized, "Invalid username or password")
	assertBusiness(t, errWrong, http.StatusUnauthorized, "Invalid username or password")
	assert.Empty(t, s.notifier.sent)
	assert.False(t, s.session(t).HasPending())
}

func TestLogin_Validation(t *testing.T) {
	s := newSuite(t, nil)

	_, err := s.uc.Login(s.request(t), LoginInput{Username: "  ", Password: "x"})
	assertBusiness(t, err, http.StatusUnprocessableEntity, "Fill all fields")
}

func TestLogin_NotifierFailureIsNotFatal(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	s.notifier.err = errors.New("smtp down")

	out, err := s.uc.Login(s.request(t), LoginInput{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	assert.False(t, out.OTPSent)
	assert.Equal(t, t0.Add(300*time.Second), out.ExpiresAt)

	require.NoError(t, s.verify(t, s.notifier.lastCode(t)))
}

func TestLogin_StoresOnlyDigest(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	code := s.login(t, "alice", "pw123")

	rec, err := s.mem.FindLatestUnconsumedOTP(context.Background(), s.session(t).PendingUserID)
	require.NoError(t, err)
	assert.NotContains(t, rec.CodeHash, code)
	assert.Len(t, rec.CodeHash, 64)
	assert.True(t, s.hmac.Verify(rec.CodeHash, code))
	assert.Equal(t, t0.Add(300*time.Second), rec.ExpiresAt)
	assert.False(t, rec.Consumed)
	assert.Zero(t, rec.Attempts)
}

func TestRegister(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, " alice ", " A@X.com ", "pw123")

	u, err := s.mem.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotEqual(t, "pw123", u.PasswordHash)

	t.Run("email differs only by case", func(t *testing.T) {
		err := s.uc.Register(s.request(t), RegisterInput{Username: "bob", Email: "a@X.COM", Password: "pw"})
		assertBusiness(t, err, http.StatusConflict, "Username or email already exists")
	})

	t.Run("username taken", func(t *testing.T) {
		err := s.uc.Register(s.request(t), RegisterInput{Username: "alice", Email: "new@x.com", Password: "pw"})
		assertBusiness(t, err, http.StatusConflict, "Username or email already exists")
	})

	t.Run("missing fields", func(t *testing.T) {
		err := s.uc.Register(s.request(t), RegisterInput{Username: "carol"})
		assertBusiness(t, err, http.StatusUnprocessableEntity, "Fill all fields")
	})

	t.Run("invalid email", func(t *testing.T) {
		err := s.uc.Register(s.request(t), RegisterInput{Username: "carol", Email: "nope", Password: "pw"})
		assertBusiness(t, err, http.StatusUnprocessableEntity, "Fill all fields")
	})

	t.Run("multibyte password over 72 bytes", func(t *testing.T) {
		password := strings.Repeat("é", 40)
		require.Less(t, len([]rune(password)), 72)

		err := s.uc.Register(s.request(t), RegisterInput{Username: "dave", Email: "d@x.com", Password: password})
		gerr := assertBusiness(t, err, http.StatusUnprocessableEntity, "Validation error")
		assert.Equal(t, map[string]string{"password": "Password is too long"}, gerr.Fields())

		_, err = s.mem.FindUserByUsername(context.Background(), "dave")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestLogoutAndDashboard(t *testing.T) {
	s := newSuite(t, nil)

	_, err := s.uc.Dashboard(s.request(t))
	assertBusiness(t, err, http.StatusUnauthorized, "Login first.")

	s.register(t, "alice", "a@x.com", "pw123")
	require.NoError(t, s.verify(t, s.login(t, "alice", "pw123")))

	require.NoError(t, s.uc.Logout(s.request(t)))
	assert.False(t, s.session(t).Authenticated())

	_, err = s.uc.Dashboard(s.request(t))
	assertBusiness(t, err, http.StatusUnauthorized, "Login first.")

	// logging out twice is harmless
	require.NoError(t, s.uc.Logout(s.request(t)))
}

func TestLogout_KeepsPendingLogin(t *testing.T) {
	s := newSuite(t, nil)
	s.register(t, "alice", "a@x.com", "pw123")
	s.login(t, "alice", "pw123")

	require.NoError(t, s.uc.Logout(s.request(t)))
	assert.True(t, s.session(t).HasPending())
}

func TestOperations_RequireSessionInContext(t *testing.T) {
	s := newSuite(t, nil)
	ctx := context.Background()

	_, err := s.uc.Login(ctx, LoginInput{Username: "a", Password: "b"})
	assertBusiness(t, err, http.StatusInternalServerError, "Internal server error")

	_, err = s.uc.VerifyOTP(ctx, VerifyOTPInput{Code: "123456"})
	assertBusiness(t, err, http.StatusInternalServerError, "Internal server error")

	assertBusiness(t, s.uc.Logout(ctx), http.StatusInternalServerError, "Internal server error")

	_, err = s.uc.Dashboard(ctx)
	assertBusiness(t, err, http.StatusInternalServerError, "Internal server error")
}

func TestOTPPolicy_Defaults(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)

	uc := &Usecase{cfg: cfg}
	ttl, maxAttempts := uc.otpPolicy()
	assert.Equal(t, 300*time.Second, ttl)
	assert.Equal(t, 5, maxAttempts)
}

type brokenRepo struct {
	*memory.Memory
	err error
}

func (b brokenRepo) FindUserByUsername(context.Context, string) (*entity.User, error) {
	return nil, b.err
}

func (b brokenRepo) FindUserByUsernameOrEmail(context.Context, string, string) (*entity.User, error) {
	return nil, b.err
}

func TestStoreFailuresPropagate(t *testing.T) {
	storeErr := errors.New("connection reset")
	s := newSuite(t, func(m *memory.Memory) repoDB { return brokenRepo{Memory: m, err: storeErr} })

	err := s.uc.Register(s.request(t), RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	assert.ErrorIs(t, err, storeErr)
	assertBusiness(t, err, http.StatusInternalServerError, "Internal server error")

	_, err = s.uc.Login(s.request(t), LoginInput{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, storeErr)
}
