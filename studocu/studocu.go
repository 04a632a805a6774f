package studocu

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"
)

type StudocuClient struct {
	credentials Credentials
	baseUrl     string
	httpClient  *http.Client
	mu          sync.RWMutex
	loggedIn    bool
	lastError   string
}

func NewStudocuClient(email, password, baseUrl, proxyDSN string) (*StudocuClient, error) {
	transport := &http.Transport{}
	if proxyDSN != "" {
		proxyURL, err := url.Parse(proxyDSN)
		if err != nil {
			return nil, fmt.Errorf("studocu client proxy dsn error: %w", err)
		}

		transport = &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: false,
			},
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error create cookie jar: %w", err)
	}

	return &StudocuClient{
		credentials: Credentials{Email: email, Password: password},
		baseUrl:     strings.TrimRight(baseUrl, "/"),
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
			Jar:       jar,
		},
	}, nil
}

// Login signs in with the client's credentials. Rejected credentials give (false, nil);
// transport failures and unexpected statuses give an error.
func (s *StudocuClient) Login(ctx context.Context) (bool, error) {
	s.setState(false, "")

	page, err := s.doRequest(ctx, http.MethodGet, s.baseUrl+LOGIN_PAGE_PATH, nil, nil)
	if err != nil {
		return false, fmt.Errorf("error open login page: %w", err)
	}
	if page.StatusCode >= 500 {
		return false, fmt.Errorf("error open login page, status %d: %s", page.StatusCode, truncate(page.RawBody, 200))
	}

	requestBody, err := json.Marshal(LoginRequest{
		Email:    s.credentials.Email,
		Password: s.credentials.Password,
		Remember: true,
	})
	if err != nil {
		return false, fmt.Errorf("error encode login request: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"X-Request-Id": uuid.NewString(),
	}
	if token := s.xsrfToken(); token != "" {
		headers["X-XSRF-TOKEN"] = token
	}

	response, err := s.doRequest(ctx, http.MethodPost, s.baseUrl+LOGIN_API_PATH, requestBody, headers)
	if err != nil {
		return false, fmt.Errorf("error send login request: %w", err)
	}

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		s.setState(true, "")
		return true, nil
	case response.StatusCode == http.StatusUnauthorized,
		response.StatusCode == http.StatusForbidden,
		response.StatusCode == http.StatusUnprocessableEntity:
		message := ExtractErrorMessage(response.RawBody)
		if message == "" {
			message = fmt.Sprintf("login rejected with status %d", response.StatusCode)
		}
		s.setState(false, message)
		return false, nil
	default:
		message := ExtractErrorMessage(response.RawBody)
		if message == "" {
			message = truncate(response.RawBody, 200)
		}
		s.setState(false, message)
		return false, fmt.Errorf("error login, status %d: %s", response.StatusCode, message)
	}
}

func (s *StudocuClient) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// LastError holds the server's reason for the most recent rejected login.
func (s *StudocuClient) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *StudocuClient) setState(loggedIn bool, lastError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = loggedIn
	s.lastError = lastError
}

func (s *StudocuClient) doRequest(ctx context.Context, method, uri string, body []byte, headers map[string]string) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, fmt.Errorf("error create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    bodyBytes,
	}, nil
}

func (s *StudocuClient) xsrfToken() string {
	base, err := url.Parse(s.baseUrl)
	if err != nil {
		return ""
	}
	for _, cookie := range s.httpClient.Jar.Cookies(base) {
		if cookie.Name == XSRF_COOKIE_NAME {
			token, err := url.QueryUnescape(cookie.Value)
			if err != nil {
				return cookie.Value
			}
			return token
		}
	}
	return ""
}

// ExtractErrorMessage pulls a human readable reason out of a JSON error body.
func ExtractErrorMessage(body []byte) string {
	if message, err := jsonparser.GetString(body, "message"); err == nil && message != "" {
		return message
	}
	if message, err := jsonparser.GetString(body, "errors", "email", "[0]"); err == nil && message != "" {
		return message
	}
	if message, err := jsonparser.GetString(body, "error"); err == nil && message != "" {
		return message
	}
	return ""
}

func truncate(body []byte, limit int) string {
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
