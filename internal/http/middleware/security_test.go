package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveWithSecurity(opt SecurityOptions, req *http.Request, pre ...gin.HandlerFunc) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.Any("/*path", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline_And_ExposeHeader(t *testing.T) {
	h := serveWithSecurity(SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/draw", nil),
		func(c *gin.Context) { c.Header(requestIDHeader, "rid-123"); c.Next() })

	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected optional headers: %#v", h)
	}
	if h.Get("Access-Control-Expose-Headers") != requestIDHeader {
		t.Fatalf("expose header = %q", h.Get("Access-Control-Expose-Headers"))
	}

	h = serveWithSecurity(SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/draw", nil),
		func(c *gin.Context) {
			c.Header(requestIDHeader, "rid-123")
			c.Header("Access-Control-Expose-Headers", "Content-Length")
			c.Next()
		})
	if got := h.Get("Access-Control-Expose-Headers"); got != "Content-Length, X-Request-ID" {
		t.Fatalf("expose header append = %q", got)
	}
}

func TestSecurityHeaders_NoStoreForPrivatePrefixes(t *testing.T) {
	opt := SecurityOptions{NoStorePrefixes: []string{"/api/v1/me", "/api/v1/sessions"}}

	h := serveWithSecurity(opt, httptest.NewRequest(http.MethodGet, "/api/v1/me/assignment", nil))
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("private route must not be cached: %#v", h)
	}
	h = serveWithSecurity(opt, httptest.NewRequest(http.MethodGet, "/api/v1/draw", nil))
	if h.Get("Cache-Control") != "" {
		t.Fatalf("public route got cache headers: %#v", h)
	}
	h = serveWithSecurity(SecurityOptions{NoStore: true}, httptest.NewRequest(http.MethodGet, "/api/v1/draw", nil))
	if h.Get("Cache-Control") != "no-store" {
		t.Fatalf("NoStore must apply everywhere: %#v", h)
	}
}

func TestSecurityHeaders_PolicyAndHSTS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, EnablePolicy: true}

	plain := serveWithSecurity(opt, httptest.NewRequest(http.MethodGet, "/", nil))
	if plain.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP")
	}
	if plain.Get("Permissions-Policy") == "" || plain.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", plain)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	if got := serveWithSecurity(opt, req).Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS over TLS = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := serveWithSecurity(SecurityOptions{EnableHSTS: true}, req).Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("default HSTS via proxy = %q", got)
	}
}
