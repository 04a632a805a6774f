package studocu

import "net/http"

const LOGIN_PAGE_PATH = "/en-gb/login"
const LOGIN_API_PATH = "/api/auth/login"
const XSRF_COOKIE_NAME = "XSRF-TOKEN"

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type APIResponse struct {
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}
