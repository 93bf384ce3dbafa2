// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/config"
	"codeberg.org/oliverandrich/assettag/internal/handlers"
	"codeberg.org/oliverandrich/assettag/internal/i18n"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/repository"
	"codeberg.org/oliverandrich/assettag/internal/services/assignment"
	"codeberg.org/oliverandrich/assettag/internal/services/codegen"
	"codeberg.org/oliverandrich/assettag/internal/services/export"
	"codeberg.org/oliverandrich/assettag/internal/services/qrimage"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"codeberg.org/oliverandrich/assettag/internal/services/session"
	"codeberg.org/oliverandrich/assettag/internal/sse"
	"codeberg.org/oliverandrich/assettag/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = "https://tags.example.com"

func init() {
	// Initialize i18n for template rendering
	_ = i18n.Init()
}

type env struct {
	e    *echo.Echo
	h    *handlers.Handlers
	repo *repository.Repository
	dir  string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	_, repo := testutil.NewTestDB(t)

	renderer, err := qrimage.New(qrimage.Options{Origin: origin, Size: 128, Margin: 2})
	require.NoError(t, err)

	sessions, err := session.NewManager(&config.SessionConfig{CookieName: "_scan_session", MaxAge: 3600}, false)
	require.NoError(t, err)

	dir := t.TempDir()
	sink, err := export.NewDirSink(dir)
	require.NoError(t, err)

	hub := sse.NewHub()
	h := handlers.New(handlers.Deps{
		Repo:       repo,
		Codes:      codegen.NewService(repo),
		Renderer:   renderer,
		Resolver:   resolver.New(repo),
		Assignment: assignment.NewService(repo, repo, assignment.WithNotifier(hub)),
		Scans:      scan.NewRegistry[resolver.Outcome](16, time.Minute),
		Sessions:   sessions,
		Hub:        hub,
		Exporter:   export.New(renderer, sink, nil),
	})

	e := echo.New()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.GET("/health", h.Health)
	e.GET("/", h.Home)
	e.GET("/codes", h.Codes)
	e.POST("/codes", h.GenerateCodes)
	e.GET("/codes/manifest.xlsx", h.Manifest)
	e.GET("/codes/:id/image.png", h.CodeImage)
	e.GET("/qr/:id", h.Landing)
	e.POST("/qr/:id/assign", h.Assign)
	e.POST("/qr/:id/assign-new", h.AssignNew)
	e.POST("/qr/:id/unassign", h.Unassign)
	e.GET("/assets/:id", h.Asset)
	e.GET("/scan", h.ScanPage)
	e.GET("/events", h.Events)
	e.GET("/api/codes", h.APIListCodes)
	e.POST("/api/codes", h.APICreateCodes)
	e.GET("/api/codes/:id", h.APIGetCode)
	e.POST("/api/scan", h.APIScan)
	e.POST("/api/scan/reset", h.APIScanReset)

	return &env{e: e, h: h, repo: repo, dir: dir}
}

func (v *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

func (v *env) get(path string) *httptest.ResponseRecorder {
	return v.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (v *env) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return v.do(req)
}

func (v *env) postJSON(path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := testutil.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return v.do(req)
}

func (v *env) assign(t *testing.T, id, name string) *models.Asset {
	t.Helper()
	asset := testutil.NewTestAsset(t, v.repo, name)
	_, err := v.repo.UpdateCodeAssignment(context.Background(), id, &asset.ID)
	require.NoError(t, err)
	return asset
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h := handlers.New(handlers.Deps{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Health(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHome(t *testing.T) {
	v := newEnv(t)

	rec := v.get("/")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/codes", rec.Header().Get(echo.HeaderLocation))
}

func TestCodes(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "ABC123", "XYZ789")

	rec := v.get("/codes?generated=2")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "ABC123")
	assert.Contains(t, body, "XYZ789")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "Generated 2 codes")
}

func TestGenerateCodes(t *testing.T) {
	v := newEnv(t)

	rec := v.postForm("/codes", url.Values{"count": {"3"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/codes?generated=3", rec.Header().Get(echo.HeaderLocation))

	stats, err := v.repo.CodeStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 3, stats.Unassigned)
}

func TestGenerateCodes_Htmx(t *testing.T) {
	v := newEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/codes", strings.NewReader("count=1"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("HX-Request", "true")
	rec := v.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/codes?generated=1", rec.Header().Get("HX-Redirect"))
}

func TestGenerateCodes_InvalidCount(t *testing.T) {
	tests := []struct {
		name  string
		count string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"above batch limit", "51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newEnv(t)

			rec := v.postForm("/codes", url.Values{"count": {tt.count}})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			stats, err := v.repo.CodeStats(context.Background())
			require.NoError(t, err)
			assert.Zero(t, stats.Total)
		})
	}
}

func TestCodeImage(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "ABC123")

	rec := v.get("/codes/ABC123/image.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "\x89PNG", rec.Body.String()[:4])
	assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))

	rec = v.get("/codes/ABC123/image.png?download=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="QR-ABC123.png"`, rec.Header().Get(echo.HeaderContentDisposition))
}

func TestCodeImage_Errors(t *testing.T) {
	v := newEnv(t)

	assert.Equal(t, http.StatusBadRequest, v.get("/codes/abc/image.png").Code)
	assert.Equal(t, http.StatusNotFound, v.get("/codes/ZZZ999/image.png").Code)
}

func TestManifest(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "ABC123")

	rec := v.get("/codes/manifest.xlsx")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType(), rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), export.ManifestName)
	// xlsx files are zip archives
	assert.Equal(t, "PK", rec.Body.String()[:2])
}

func TestLanding(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "FREE01", "USED01")
	asset := v.assign(t, "USED01", "Drill")

	tests := []struct {
		name     string
		path     string
		status   int
		location string
		contains string
	}{
		{"unassigned shows form", "/qr/FREE01", http.StatusOK, "", `action="/qr/FREE01/assign-new"`},
		{"assigned redirects", "/qr/USED01", http.StatusSeeOther, "/assets/" + asset.ID, ""},
		{"manage assigned", "/qr/USED01?manage=1", http.StatusOK, "", "Drill"},
		{"unknown identifier", "/qr/NOPE99", http.StatusNotFound, "", "Not a code of this system."},
		{"malformed identifier", "/qr/hello", http.StatusNotFound, "", "Not a code of this system."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := v.get(tt.path)

			assert.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get(echo.HeaderLocation))
			}
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestLanding_NeverCreatesCodes(t *testing.T) {
	v := newEnv(t)

	v.get("/qr/NOPE99")

	exists, err := v.repo.CodeExists(context.Background(), "NOPE99")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAssign(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "FREE01")
	asset := testutil.NewTestAsset(t, v.repo, "Ladder")

	rec := v.postForm("/qr/FREE01/assign", url.Values{"asset_id": {asset.ID}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/assets/"+asset.ID, rec.Header().Get(echo.HeaderLocation))

	code, err := v.repo.FindCode(context.Background(), "FREE01")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, code.Status)
	require.NotNil(t, code.AssignedAssetID)
	assert.Equal(t, asset.ID, *code.AssignedAssetID)
}

func TestAssign_PaddedAssetID(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "FREE01")
	asset := testutil.NewTestAsset(t, v.repo, "Ladder")

	rec := v.postForm("/qr/FREE01/assign", url.Values{"asset_id": {"  " + asset.ID + " "}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/assets/"+asset.ID, rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, http.StatusOK, v.get("/assets/"+asset.ID).Code)
}

func TestAssign_InvalidAsset(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "FREE01")

	for _, assetID := range []string{"", "does-not-exist"} {
		rec := v.postForm("/qr/FREE01/assign", url.Values{"asset_id": {assetID}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "The request was invalid.")
	}

	code, err := v.repo.FindCode(context.Background(), "FREE01")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnassigned, code.Status)
}

func TestAssign_UnknownCode(t *testing.T) {
	v := newEnv(t)
	asset := testutil.NewTestAsset(t, v.repo, "Ladder")

	rec := v.postForm("/qr/NOPE99/assign", url.Values{"asset_id": {asset.ID}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignNew(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "FREE01")

	rec := v.postForm("/qr/FREE01/assign-new", url.Values{
		"name":       {"  Projector  "},
		"location":   {"Room 4"},
		"project_id": {"P-7"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get(echo.HeaderLocation)
	require.True(t, strings.HasPrefix(location, "/assets/"))

	asset, err := v.repo.GetAsset(context.Background(), strings.TrimPrefix(location, "/assets/"))
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "Projector", asset.Name)
	assert.Equal(t, "Room 4", asset.Location)
	require.NotNil(t, asset.ProjectID)
	assert.Equal(t, "P-7", *asset.ProjectID)
}

func TestAssignNew_MissingName(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "FREE01")

	rec := v.postForm("/qr/FREE01/assign-new", url.Values{"name": {"   "}, "location": {"Room 4"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Room 4"`)

	assets, err := v.repo.ListAssets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestUnassign(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "USED01")
	v.assign(t, "USED01", "Drill")

	rec := v.postForm("/qr/USED01/unassign", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/qr/USED01", rec.Header().Get(echo.HeaderLocation))

	code, err := v.repo.FindCode(context.Background(), "USED01")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnassigned, code.Status)
	assert.Nil(t, code.AssignedAssetID)
}

func TestAsset(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "USED01")
	asset := v.assign(t, "USED01", "Drill")

	rec := v.get("/assets/" + asset.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Drill")
	assert.Contains(t, rec.Body.String(), "USED01")

	assert.Equal(t, http.StatusNotFound, v.get("/assets/missing").Code)
}

func TestScanPage_SetsSessionCookie(t *testing.T) {
	v := newEnv(t)

	rec := v.get("/scan")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="scanner"`)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "_scan_session", cookies[0].Name)
}

func scanResponse(t *testing.T, rec *httptest.ResponseRecorder) handlers.ScanResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handlers.ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAPIScan_SessionFlow(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "USED01", "FREE01")
	asset := v.assign(t, "USED01", "Drill")

	first := v.postJSON("/api/scan", `{"raw":"`+origin+`/qr/USED01"}`)
	resp := scanResponse(t, first)
	assert.True(t, resp.Accepted)
	assert.Equal(t, "classified", resp.State)
	assert.Equal(t, "/assets/"+asset.ID, resp.Path)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, resolver.ViewAsset, resp.Intent.Kind)

	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)

	// a second frame while the result is on screen is dropped
	resp = scanResponse(t, v.postJSON("/api/scan", `{"raw":"FREE01"}`, cookies...))
	assert.False(t, resp.Accepted)
	assert.Nil(t, resp.Intent)

	resp = scanResponse(t, v.postJSON("/api/scan/reset", `{}`, cookies...))
	assert.Equal(t, "idle", resp.State)

	resp = scanResponse(t, v.postJSON("/api/scan", `{"raw":"FREE01"}`, cookies...))
	assert.True(t, resp.Accepted)
	assert.Equal(t, "/qr/FREE01", resp.Path)
	assert.Equal(t, resolver.OpenAssignment, resp.Intent.Kind)
}

func TestAPIScan_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
		state  string
	}{
		{"unreadable text keeps scanning", "hello world", resolver.ReasonUnreadable, "idle"},
		{"unknown identifier", origin + "/qr/NOPE99", resolver.ReasonNotSystemCode, "classified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newEnv(t)

			resp := scanResponse(t, v.postJSON("/api/scan", `{"raw":"`+tt.raw+`"}`))

			assert.True(t, resp.Accepted)
			require.NotNil(t, resp.Intent)
			assert.Equal(t, resolver.Reject, resp.Intent.Kind)
			assert.Equal(t, tt.reason, resp.Intent.Reason)
			assert.Empty(t, resp.Path)
			assert.Equal(t, tt.state, resp.State)
		})
	}
}

func TestAPIListCodes(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "USED01", "FREE01", "FREE02")
	v.assign(t, "USED01", "Drill")

	rec := v.get("/api/codes?status=unassigned&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	codes, ok := out["codes"].([]any)
	require.True(t, ok)
	require.Len(t, codes, 1)
	code := codes[0].(map[string]any)
	assert.Equal(t, "unassigned", code["status"])
	assert.Equal(t, origin+"/qr/"+code["id"].(string), code["url"])

	stats := out["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["total"])

	assert.Equal(t, http.StatusBadRequest, v.get("/api/codes?status=lost").Code)
	assert.Equal(t, http.StatusBadRequest, v.get("/api/codes?limit=-1").Code)
}

func TestAPICreateCodes(t *testing.T) {
	v := newEnv(t)

	rec := v.postJSON("/api/codes", `{"count":2}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	codes := decode(t, rec)["codes"].([]any)
	assert.Len(t, codes, 2)

	rec = v.postJSON("/api/codes", `{"count":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "error")
}

func TestAPIGetCode(t *testing.T) {
	v := newEnv(t)
	testutil.NewTestCodes(t, v.repo, "USED01")
	asset := v.assign(t, "USED01", "Drill")

	rec := v.get("/api/codes/USED01")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "known_assigned", out["outcome"].(map[string]any)["classification"])
	assert.Equal(t, asset.ID, out["intent"].(map[string]any)["asset_id"])

	assert.Equal(t, http.StatusNotFound, v.get("/api/codes/NOPE99").Code)
	assert.Equal(t, http.StatusBadRequest, v.get("/api/codes/nope").Code)
}

func TestEvents(t *testing.T) {
	v := newEnv(t)
	codes := testutil.NewTestCodes(t, v.repo, "FREE01")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		v.e.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return v.h.Hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	v.h.Hub.CodeChanged(&codes[0])
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	body := rec.Body.String()
	assert.Contains(t, body, "event: "+sse.EventConnected)
	assert.Contains(t, body, "event: "+sse.EventCode)
	assert.Contains(t, body, "FREE01")
	assert.Zero(t, v.h.Hub.ClientCount())
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Invalid("bad"), http.StatusBadRequest},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrConflict, http.StatusConflict},
		{apperr.Store("op", errors.New("down")), http.StatusServiceUnavailable},
		{apperr.ErrCollisionRetryExhausted, http.StatusServiceUnavailable},
		{echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, handlers.ErrorStatus(tt.err))
		})
	}
}

func TestHTTPErrorHandler_API(t *testing.T) {
	v := newEnv(t)

	rec := v.get("/api/nothing-here")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Equal(t, "Not found.", decode(t, rec)["error"])
}
