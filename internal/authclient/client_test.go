package authclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dependency-manager/internal/authclient"
	"dependency-manager/internal/model"
	"dependency-manager/internal/model/requestresponse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiStub имитирует сервер: access токены вне allowed получают 401,
// refresh обменивает старый refresh токен на новую пару
type apiStub struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	refreshCalls int64
	failRefresh  bool
}

func (s *apiStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.refreshCalls, 1)

		if s.failRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(requestresponse.Envelope{Success: false})
			return
		}

		var body requestresponse.RefreshTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		if body.RefreshToken != s.validRefresh {
			s.mu.Unlock()
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(requestresponse.Envelope{Success: false})
			return
		}
		s.validAccess = "access-2"
		s.validRefresh = "refresh-2"
		tokens := model.TokensPair{AccessToken: s.validAccess, RefreshToken: s.validRefresh}
		s.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"tokens": tokens},
		})
	})

	mux.HandleFunc("/api/v1/protected", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		valid := r.Header.Get("Authorization") == "Bearer "+s.validAccess
		s.mu.Unlock()

		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func TestDo_PassesThroughOnSuccess(t *testing.T) {
	stub := &apiStub{validAccess: "access-1", validRefresh: "refresh-1"}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	client := authclient.New(server.URL, server.Client())
	client.SetTokens("access-1", "refresh-1")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/protected", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), atomic.LoadInt64(&stub.refreshCalls))
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	stub := &apiStub{validAccess: "access-1", validRefresh: "refresh-1"}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	client := authclient.New(server.URL, server.Client())
	// Протухший access при живом refresh
	client.SetTokens("stale-access", "refresh-1")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/protected", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), atomic.LoadInt64(&stub.refreshCalls))

	access, refresh := client.Tokens()
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-2", refresh)
}

// Десять одновременных 401 порождают ровно один обмен refresh токена
func TestDo_ConcurrentRequestsSingleRefresh(t *testing.T) {
	stub := &apiStub{validAccess: "access-1", validRefresh: "refresh-1"}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	client := authclient.New(server.URL, server.Client())
	client.SetTokens("stale-access", "refresh-1")

	const parallel = 10
	var wg sync.WaitGroup
	statuses := make([]int, parallel)
	errs := make([]error, parallel)

	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/protected", nil)
			if err != nil {
				errs[i] = err
				return
			}
			resp, err := client.Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i := 0; i < parallel; i++ {
		require.NoError(t, errs[i], "запрос %d", i)
		assert.Equal(t, http.StatusOK, statuses[i], "запрос %d", i)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&stub.refreshCalls))
}

func TestDo_RefreshFailureClearsTokens(t *testing.T) {
	stub := &apiStub{validAccess: "access-1", validRefresh: "refresh-1", failRefresh: true}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	expired := make(chan struct{}, 1)
	client := authclient.New(server.URL, server.Client())
	client.OnSessionExpired = func() { expired <- struct{}{} }
	client.SetTokens("stale-access", "stale-refresh")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/protected", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrSessionExpired)

	access, refresh := client.Tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("колбэк OnSessionExpired не вызван")
	}
}

func TestDo_NoRefreshTokenFailsFast(t *testing.T) {
	stub := &apiStub{validAccess: "access-1", validRefresh: "refresh-1"}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	client := authclient.New(server.URL, server.Client())
	client.SetTokens("stale-access", "")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/protected", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrSessionExpired)
	assert.Equal(t, int64(0), atomic.LoadInt64(&stub.refreshCalls))
}
