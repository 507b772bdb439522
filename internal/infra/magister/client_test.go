package magister

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dm "magister_monitor/internal/domain/magister"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountJSON = `{"Persoon":{"Id":4711}}`

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(srv.URL, func() string { return "tok-123" }, testLogger())
	c.retry = RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond, Multiplier: 1}
	return c
}

func TestGradesDecodesDutchPayload(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/account":
			io.WriteString(w, accountJSON)
		case "/api/personen/4711/cijfers/laatste":
			authHeader = r.Header.Get("Authorization")
			assert.Equal(t, "10", r.URL.Query().Get("top"))
			io.WriteString(w, `{"items":[{"kolomId":9001,"omschrijving":"SO hfst 3","ingevoerdOp":"2025-03-10T09:30:00Z","vak":{"code":"wi","omschrijving":"Wiskunde"},"waarde":"7.8","isVoldoende":true}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	grades, err := newTestClient(srv).Grades(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, grades, 1)

	g := grades[0]
	assert.Equal(t, int64(9001), g.ID)
	assert.Equal(t, "Wiskunde", g.Subject.Description)
	assert.Equal(t, "7.8", g.Value)
	assert.True(t, g.Sufficient)
	assert.Equal(t, "Bearer tok-123", authHeader)
}

func TestScheduleSendsDateRangeAndDecodesUpperItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/account":
			io.WriteString(w, accountJSON)
		case "/api/personen/4711/afspraken":
			assert.Equal(t, "2025-03-10", r.URL.Query().Get("van"))
			assert.Equal(t, "2025-03-10", r.URL.Query().Get("tot"))
			io.WriteString(w, `{"Items":[{"Id":42,"Start":"2025-03-10T09:00:00Z","Einde":"2025-03-10T10:00:00Z","Omschrijving":"Wiskunde","Lokatie":"A12","Inhoud":null,"InfoType":1,"Afgerond":false}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	appointments, err := newTestClient(srv).Schedule(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, appointments, 1)

	a := appointments[0]
	assert.Equal(t, "Wiskunde", a.DisplayName())
	assert.Equal(t, "A12", a.LocationName())
	assert.False(t, a.HasHomework())
}

func TestPersonIDCachedAcrossCalls(t *testing.T) {
	accountCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/account":
			accountCalls++
			io.WriteString(w, accountJSON)
		default:
			io.WriteString(w, `{"Items":[]}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	day := time.Now()
	_, err := c.Schedule(context.Background(), day, day)
	require.NoError(t, err)
	_, err = c.Assignments(context.Background(), 50)
	require.NoError(t, err)

	assert.Equal(t, 1, accountCalls)
}

func TestUnauthorizedMapsToAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Folders(context.Background())

	var authErr *dm.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestServerErrorMapsToTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Folders(context.Background())

	var transient *dm.TransientError
	require.ErrorAs(t, err, &transient)
}

func TestGarbledBodyMapsToTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<html>maintenance page</html>`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Folders(context.Background())

	var transient *dm.TransientError
	require.ErrorAs(t, err, &transient)
}

func TestBearerPrefixNotDoubled(t *testing.T) {
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		io.WriteString(w, `{"items":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, func() string { return "Bearer already-prefixed" }, testLogger())
	_, err := c.Folders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer already-prefixed", header)
}

func TestRetryRecoversFromTransientFlake(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"items":[{"id":5,"naam":"Postvak IN","aantalOngelezen":2}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.retry = RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond, Multiplier: 1}

	folders, err := c.Folders(context.Background())
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.True(t, folders[0].IsInbox())
	assert.Equal(t, 2, attempts)
}

func TestRetryDoesNotRetryAuthFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.retry = RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond, Multiplier: 1}

	_, err := c.Folders(context.Background())

	var authErr *dm.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 1, attempts, "auth failures must surface immediately")
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.retry = RetryPolicy{MaxAttempts: 100, Delay: 10 * time.Millisecond, Multiplier: 1}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Folders(ctx)

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
