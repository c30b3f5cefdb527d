package auth

import (
	"net/http"
	"net/http/httptest"
)

func newRequestWithAuth(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}
