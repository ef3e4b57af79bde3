package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"tagblog/services"
)

func csrfRouter(csrf *services.CSRF) *mux.Router {
	r := mux.NewRouter()
	r.Use(CSRFProtect(csrf))
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	r.HandleFunc("/thing", ok).Methods("GET", "POST")
	return r
}

func TestCSRFProtectIssuesCookieOnGet(t *testing.T) {
	csrf := services.NewCSRF("test-secret")
	router := csrfRouter(csrf)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/thing", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)
	require.True(t, csrf.Verify(token))
}

func TestCSRFProtectRejectsMutationsWithoutHeader(t *testing.T) {
	csrf := services.NewCSRF("test-secret")
	router := csrfRouter(csrf)

	token, err := csrf.Token()
	require.NoError(t, err)

	// No cookie and no header.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/thing", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Cookie without the echoing header.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/thing", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Header not matching the cookie.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/thing", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
	req.Header.Set(CSRFHeaderName, "something-else")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFProtectAcceptsEchoedCookie(t *testing.T) {
	csrf := services.NewCSRF("test-secret")
	router := csrfRouter(csrf)

	token, err := csrf.Token()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/thing", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
	req.Header.Set(CSRFHeaderName, token)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFProtectRejectsForeignToken(t *testing.T) {
	router := csrfRouter(services.NewCSRF("test-secret"))

	foreign, err := services.NewCSRF("other-secret").Token()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/thing", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: foreign})
	req.Header.Set(CSRFHeaderName, foreign)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
