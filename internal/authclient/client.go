package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"dependency-manager/internal/model"
)

// ErrSessionExpired : refresh токен отвергнут сервером, сессия невосстановима
var ErrSessionExpired = errors.New("сессия истекла, требуется повторный вход")

// Client : HTTP клиент API с координатором обновления токенов.
// На весь клиент допускается не больше одного обмена refresh токена
// одновременно: запросы, получившие 401 во время обмена, встают в очередь
// и продолжаются с новым access токеном
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	refreshing   bool
	refreshDone  chan struct{}
	refreshErr   error

	// OnSessionExpired вызывается после неудачного обмена refresh токена
	OnSessionExpired func()
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// SetTokens сохраняет пару токенов после входа
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

// Tokens возвращает текущую пару токенов
func (c *Client) Tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// Do выполняет запрос с access токеном.
// На 401 запрос повторяется ровно один раз после обновления токенов —
// иначе отвергнутый сервером новый токен зациклит 401 → refresh → 401
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	access := c.accessToken
	c.mu.Unlock()

	resp, err := c.do(req, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	newAccess, err := c.awaitRefresh(req.Context(), access)
	if err != nil {
		return nil, err
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}
	return c.do(retry, newAccess)
}

func (c *Client) do(req *http.Request, accessToken string) (*http.Response, error) {
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.httpClient.Do(req)
}

// awaitRefresh гарантирует не больше одного обмена refresh токена:
// первый пришедший запускает обмен, остальные ждут его результата.
// staleAccess отсекает гонку, когда токены уже обновлены другим запросом
func (c *Client) awaitRefresh(ctx context.Context, staleAccess string) (string, error) {
	c.mu.Lock()

	if c.accessToken != "" && c.accessToken != staleAccess {
		access := c.accessToken
		c.mu.Unlock()
		return access, nil
	}

	if c.refreshing {
		done := c.refreshDone
		c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.refreshErr != nil {
			return "", c.refreshErr
		}
		return c.accessToken, nil
	}

	c.refreshing = true
	c.refreshDone = make(chan struct{})
	refreshToken := c.refreshToken
	c.mu.Unlock()

	tokens, refreshErr := c.exchangeRefreshToken(ctx, refreshToken)

	c.mu.Lock()
	defer c.mu.Unlock()

	if refreshErr != nil {
		// Сессия невосстановима: чистим токены и будим очередь с ошибкой
		c.accessToken = ""
		c.refreshToken = ""
		c.refreshErr = refreshErr
	} else {
		c.accessToken = tokens.AccessToken
		c.refreshToken = tokens.RefreshToken
		c.refreshErr = nil
	}
	c.refreshing = false
	close(c.refreshDone)

	if refreshErr != nil {
		if c.OnSessionExpired != nil {
			go c.OnSessionExpired()
		}
		return "", refreshErr
	}
	return c.accessToken, nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	if refreshToken == "" {
		return nil, ErrSessionExpired
	}

	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrSessionExpired
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Tokens model.TokensPair `json:"tokens"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа refresh: %w", err)
	}
	if !envelope.Success || envelope.Data.Tokens.AccessToken == "" {
		return nil, ErrSessionExpired
	}

	return &envelope.Data.Tokens, nil
}

// cloneRequest готовит повтор запроса: тело восстанавливается через GetBody
func cloneRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}
