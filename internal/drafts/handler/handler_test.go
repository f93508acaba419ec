package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverdesk/internal/drafts"
	"driverdesk/pkg/domain"
	"driverdesk/pkg/platform/middleware/admin"
	"driverdesk/pkg/testutil"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(admin.Identify)
	r.Use(admin.RequireActor(logger))
	New(drafts.NewRedisStore(client, time.Hour), logger).Register(r)
	return r
}

func call(t *testing.T, r chi.Router, method, path string, body any, adminID string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.AsAdmin(testutil.NewJSONRequest(t, method, path, body), adminID)
	return testutil.DoRequest(r, req)
}

func TestDraftLifecycle(t *testing.T) {
	r := newRouter(t)
	path := "/trackers/" + domain.NewTrackerID().String() + "/drafts/licenses"

	rec := call(t, r, http.MethodGet, path, nil, "ops-1")
	testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")

	rec = call(t, r, http.MethodPut, path, `{"changes":{"licenseNumber":"Q7"}}`, "ops-1")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, r, http.MethodGet, path, nil, "ops-1")
	require.Equal(t, http.StatusOK, rec.Code)
	d := testutil.UnmarshalResponse[drafts.Draft](t, rec)
	assert.Equal(t, "Q7", d.Changes["licenseNumber"])

	rec = call(t, r, http.MethodGet, path, nil, "ops-2")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, r, http.MethodDelete, path, nil, "ops-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(t, r, http.MethodGet, path, nil, "ops-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftRequestValidation(t *testing.T) {
	r := newRouter(t)
	id := domain.NewTrackerID().String()

	rec := call(t, r, http.MethodGet, "/trackers/"+id+"/drafts/licenses", nil, "")
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")

	rec = call(t, r, http.MethodGet, "/trackers/"+id+"/drafts/hobbies", nil, "ops-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, r, http.MethodPut, "/trackers/"+id+"/drafts/licenses", `{}`, "ops-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
