package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	user := models.User{ID: uuid.New(), Email: "ana@example.com", UserRole: models.RoleSupervisor}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, models.RoleSupervisor, claims.UserRole)

	id, err := m.UserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestJWTManagerRejects(t *testing.T) {
	user := models.User{ID: uuid.New()}

	other, err := NewJWTManager("other", time.Hour).GenerateToken(user)
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour).VerifyToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewJWTManager("secret", -time.Minute).GenerateToken(user)
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour).VerifyToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: user.ID.String()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour).VerifyToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRandomTokens(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	b, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)

	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, HashToken(a), HashToken(b))
	assert.Len(t, HashToken(a), 64)
}

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	fail    bool
	closed  bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestNotifierFansOutToEveryConnection(t *testing.T) {
	n := NewNotifier(logger.Discard())
	user := uuid.New()
	tab1, tab2 := &fakeConn{}, &fakeConn{}
	n.Register(user, tab1)
	n.Register(user, tab2)

	require.NoError(t, n.Send(user, map[string]string{"event": "report_reviewed"}))
	for _, c := range []*fakeConn{tab1, tab2} {
		require.Len(t, c.written, 1)
		var got map[string]string
		require.NoError(t, json.Unmarshal(c.written[0], &got))
		assert.Equal(t, "report_reviewed", got["event"])
	}

	assert.ErrorIs(t, n.Send(uuid.New(), "x"), ErrNoConnection)
}

func TestNotifierDropsBrokenConnections(t *testing.T) {
	n := NewNotifier(logger.Discard())
	user := uuid.New()
	broken := &fakeConn{fail: true}
	n.Register(user, broken)

	assert.ErrorIs(t, n.Send(user, "x"), ErrNoConnection)
	assert.True(t, broken.closed)
	assert.Empty(t, n.ActiveUserIDs())
}

// exclusiveConn counts writes that overlap another write in progress.
type exclusiveConn struct {
	active   int32
	overlaps int32
	writes   int32
}

func (e *exclusiveConn) WriteMessage(int, []byte) error {
	if !atomic.CompareAndSwapInt32(&e.active, 0, 1) {
		atomic.AddInt32(&e.overlaps, 1)
		return nil
	}
	time.Sleep(100 * time.Microsecond)
	atomic.AddInt32(&e.writes, 1)
	atomic.StoreInt32(&e.active, 0)
	return nil
}

func (e *exclusiveConn) SetWriteDeadline(time.Time) error { return nil }

func (e *exclusiveConn) Close() error { return nil }

func TestNotifierSerializesWritesWithHandler(t *testing.T) {
	n := NewNotifier(logger.Discard())
	user := uuid.New()
	conn := &exclusiveConn{}
	client := n.Register(user, conn)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, n.Send(user, map[string]string{"event": "report_reviewed"}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, client.WriteMessage(1, []byte("pong")))
		}
	}()
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&conn.overlaps))
	assert.Equal(t, int32(100), atomic.LoadInt32(&conn.writes))

	n.Unregister(user, client)
	assert.Empty(t, n.ActiveUserIDs())
}

func TestMailerDevMode(t *testing.T) {
	m := NewMailer(MailConfig{DevMode: true}, logger.Discard())
	assert.NoError(t, m.Send("ana@example.com", "subject", "body"))

	m = NewMailer(MailConfig{}, logger.Discard())
	assert.ErrorIs(t, m.Send("ana@example.com", "subject", "body"), ErrMailNotConfigured)
}

func TestSlackNotifier(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &SlackNotifier{Webhook: srv.URL}
	require.NoError(t, s.Post("Report approved"))
	assert.Equal(t, "Report approved", got["text"])

	assert.NoError(t, (&SlackNotifier{}).Post("ignored"))
}
