package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/video-overlay/internal/api/handlers/job"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func TestUnsupportedMethodReturns405(t *testing.T) {
	// The 405 must come out of the wired router, not only out of a
	// hand-registered route. The handler never touches the service on
	// this path, so nil is fine.
	r := Setup(job.NewHandler(nil))

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		req := httptest.NewRequest(method, "/api/process", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s /api/process = %d, want 405", method, w.Code)
		}
		if !strings.Contains(w.Body.String(), "error") {
			t.Errorf("%s 405 body should be the JSON error shape: %s", method, w.Body.String())
		}
	}
}

func TestPreflightReturnsEmpty200(t *testing.T) {
	r := Setup(job.NewHandler(nil))

	req := httptest.NewRequest(http.MethodOptions, "/api/process", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("OPTIONS /api/process = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
