package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"driverdesk/pkg/requestcontext"
)

func TestIdentifyAndRequireActor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen string
	h := Identify(RequireActor(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.AdminID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	t.Run("missing header is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/trackers/x", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "bad_request")
	})

	t.Run("header is recorded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/trackers/x", nil)
		req.Header.Set(HeaderAdminID, " ops-7 ")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "ops-7", seen)
	})
}
