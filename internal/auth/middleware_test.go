package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveWith(mw gin.HandlerFunc, path string, header string) (Identity, int) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	var got Identity
	r.GET(path, func(c *gin.Context) {
		got = FromContext(c)
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return got, w.Code
}

func TestMiddlewareVerifiesBearerToken(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}
	token, _, err := j.Sign(Claims{UserID: 42, TeamID: 7, Role: "owner"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, code := serveWith(Middleware(j, false), "/api/trades", "Bearer "+token)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if got.UserID != 42 || got.TeamID != 7 || got.Role != "owner" {
		t.Fatalf("identity = %+v", got)
	}
}

func TestMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	if _, code := serveWith(Middleware(j, false), "/api/trades", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", code)
	}
	if _, code := serveWith(Middleware(j, false), "/api/trades", "Bearer not-a-token"); code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", code)
	}
}

func TestMiddlewareLeavesOpenRoutesOpen(t *testing.T) {
	j := JWT{Secret: []byte("test-secret")}
	if _, code := serveWith(Middleware(j, false), "/healthz", ""); code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", code)
	}
}

func TestDisabledAuthGrantsExplicitAdmin(t *testing.T) {
	j := JWT{Secret: []byte("test-secret")}
	got, code := serveWith(Middleware(j, true), "/api/trades", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !got.IsAdmin() {
		t.Fatalf("disabled auth should grant admin, got %+v", got)
	}
}

// A route that never passed through the middleware must see an anonymous
// identity, not an implicit admin.
func TestFromContextDefaultsToAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/internal/anything", nil)

	got := FromContext(c)
	if got.IsAdmin() {
		t.Fatal("anonymous identity must not be admin")
	}
	if got.OwnsTeam(1) || got.UserID != 0 {
		t.Fatalf("anonymous identity must own nothing: %+v", got)
	}
}
