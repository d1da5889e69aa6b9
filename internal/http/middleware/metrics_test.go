package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndGroupsUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/draw", func(c *gin.Context) { c.String(http.StatusOK, "armed") })
	r.PUT("/me/wishes", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/draw", "200"))
	baseNoContent := testutil.ToFloat64(httpReqs.WithLabelValues("PUT", "/me/wishes", "204"))
	baseUnmatched := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404"))

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/draw", http.StatusOK},
		{http.MethodPut, "/me/wishes", http.StatusNoContent},
		{http.MethodGet, "/wp-admin/setup.php", http.StatusNotFound},
		{http.MethodGet, "/random-probe", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/draw", "200")); got != baseOK+1 {
		t.Fatalf("counter /draw 200 = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("PUT", "/me/wishes", "204")); got != baseNoContent+1 {
		t.Fatalf("counter /me/wishes 204 = %v; want %v", got, baseNoContent+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404")); got != baseUnmatched+2 {
		t.Fatalf("unmatched 404 = %v; want %v", got, baseUnmatched+2)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}
