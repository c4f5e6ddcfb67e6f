package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetrack/internal/config"
	"minetrack/internal/db"
	"minetrack/internal/domain"
	"minetrack/internal/engine"
	"minetrack/internal/migrate"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))

	e := engine.New(conn, config.Default(), nil)
	e.Now = func() time.Time { return time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC) }
	n := 0
	e.NewID = func() string {
		n++
		return fmt.Sprintf("dt-%d", n)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v0", Auth: AuthConfig{JWTSecret: testSecret}})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func login(t *testing.T, srv *httptest.Server, name string, role domain.Role) string {
	t.Helper()
	res, data := doJSON(t, http.MethodPost, srv.URL+"/v0/session", "", map[string]any{
		"name": name, "role": role, "zpNumber": "ZP-" + name,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var out SessionResponse
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotEmpty(t, out.Token)
	assert.Equal(t, role, out.Session.Role)
	return out.Token
}

func errorCode(t *testing.T, data []byte) (string, map[string]any) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env.Error.Code, env.Error.Details
}

func TestHealthNeedsNoToken(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, http.MethodGet, srv.URL+"/v0/health", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestLoginWithoutSecretStoresNoSession(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	e := engine.New(conn, config.Default(), nil)
	handler, err := New(Config{Engine: e, BasePath: "/v0"})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	res, _ := doJSON(t, http.MethodPost, srv.URL+"/v0/session", "", map[string]any{
		"name": "Naledi", "role": domain.RoleAdmin, "zpNumber": "ZP001",
	})
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

	_, err = e.CurrentSession(context.Background())
	assert.ErrorIs(t, err, engine.ErrNotAuthenticated)
}

func TestRequestsWithoutValidTokenAreRejected(t *testing.T) {
	srv := newTestServer(t)

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v0/equipment", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	code, _ := errorCode(t, data)
	assert.Equal(t, "unauthorized", code)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v0/equipment", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	code, _ = errorCode(t, data)
	assert.Equal(t, "invalid_credentials", code)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	srv := newTestServer(t)
	past := time.Now().Add(-48 * time.Hour)
	token, _, err := signToken(AuthConfig{JWTSecret: testSecret, Now: func() time.Time { return past }},
		domain.Session{Name: "Naledi", Role: domain.RoleAdmin, ZPNumber: "ZP001"})
	require.NoError(t, err)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/v0/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestLoginValidation(t *testing.T) {
	srv := newTestServer(t)
	res, _ := doJSON(t, http.MethodPost, srv.URL+"/v0/session", "", map[string]any{
		"name": "Naledi", "role": "janitor", "zpNumber": "ZP001",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/v0/session", "", map[string]any{
		"name": "", "role": "admin", "zpNumber": "ZP001",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMeAndNavigationFollowTokenRole(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Thabo", domain.RoleOperator)

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v0/me", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var me MeResponse
	require.NoError(t, json.Unmarshal(data, &me))
	assert.Equal(t, "Thabo", me.Session.Name)
	assert.False(t, me.Capabilities.ViewDashboard)
	assert.True(t, me.Capabilities.ReportDowntime)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v0/navigation", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var nav engine.Navigation
	require.NoError(t, json.Unmarshal(data, &nav))
	assert.Equal(t, engine.DestEquipment, nav.Landing)
	require.Len(t, nav.Items, 2)
	assert.Equal(t, engine.DestEquipment, nav.Items[0].Key)
	assert.Equal(t, engine.DestReportDowntime, nav.Items[1].Key)
}

func TestCapabilityGatingReturnsForbidden(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Thabo", domain.RoleOperator)

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v0/downtimes", token, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	code, details := errorCode(t, data)
	assert.Equal(t, "forbidden", code)
	assert.Equal(t, "view-downtime-list", details["capability"])

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/v0/dashboard", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = doJSON(t, http.MethodPut, srv.URL+"/v0/equipment/1/status", token, map[string]any{"status": "idle"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestDowntimeLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Naledi", domain.RoleAdmin)

	res, data := doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes", token, map[string]any{
		"equipment_name": "LHD 201",
		"description":    "Hydraulic hose burst",
		"cause":          "hydraulic",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var reported engine.ReportResult
	require.NoError(t, json.Unmarshal(data, &reported))
	id := reported.Event.ID
	assert.Equal(t, "dt-1", id)
	assert.Equal(t, domain.DowntimeOpen, reported.Event.Status)
	assert.Equal(t, "LHD", reported.Event.EquipmentType)
	assert.Equal(t, "Naledi", reported.Event.ReportedBy)
	require.NotNil(t, reported.Equipment)
	assert.Equal(t, domain.EquipmentDown, reported.Equipment.To)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v0/equipment/1/active-downtime", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var active ActiveDowntimeResponse
	require.NoError(t, json.Unmarshal(data, &active))
	assert.True(t, active.Found)
	require.NotNil(t, active.Downtime)
	assert.Equal(t, id, active.Downtime.ID)

	res, data = doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes/"+id+"/close", token, map[string]any{"root_cause": "Worn hose"})
	require.Equal(t, http.StatusConflict, res.StatusCode)
	code, details := errorCode(t, data)
	assert.Equal(t, "invalid_transition", code)
	assert.Equal(t, "open", details["from"])
	assert.Equal(t, "closed", details["to"])

	res, data = doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes/"+id+"/start-repair", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var started domain.DowntimeEvent
	require.NoError(t, json.Unmarshal(data, &started))
	assert.Equal(t, domain.DowntimeInProgress, started.Status)

	res, data = doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes/"+id+"/close", token, map[string]any{
		"root_cause": "Worn hose", "repair_notes": "Replaced hose",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var closed engine.CloseResult
	require.NoError(t, json.Unmarshal(data, &closed))
	assert.Equal(t, domain.DowntimeClosed, closed.Event.Status)
	require.NotNil(t, closed.Event.EndTime)
	require.NotNil(t, closed.Equipment)
	assert.Equal(t, domain.EquipmentRunning, closed.Equipment.To)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v0/active-downtime?equipment_name=lhd%20201", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	active = ActiveDowntimeResponse{}
	require.NoError(t, json.Unmarshal(data, &active))
	assert.False(t, active.Found)
	assert.Nil(t, active.Downtime)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v0/downtimes?status=closed", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list []domain.DowntimeEvent
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Worn hose", list[0].RootCause)
}

func TestCloseRequiresRootCause(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Naledi", domain.RoleAdmin)
	res, data := doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes", token, map[string]any{
		"equipment_name": "Truck 401", "description": "Flat tyre", "cause": "mechanical",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes/dt-1/start-repair", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes/dt-1/close", token, map[string]any{"root_cause": ""})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestUnknownDowntimeIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Naledi", domain.RoleAdmin)
	res, data := doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes/missing/start-repair", token, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	code, _ := errorCode(t, data)
	assert.Equal(t, "not_found", code)

	res, _ = doJSON(t, http.MethodPut, srv.URL+"/v0/equipment/99/status", token, map[string]any{"status": "idle"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSetStatusAndDrift(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Lerato", domain.RoleMineCaptain)

	res, data := doJSON(t, http.MethodPut, srv.URL+"/v0/equipment/1/status", token, map[string]any{"status": "down"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var change engine.StatusChange
	require.NoError(t, json.Unmarshal(data, &change))
	assert.Equal(t, domain.EquipmentRunning, change.From)
	assert.Equal(t, domain.EquipmentDown, change.To)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v0/drift", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var drift []engine.DriftEntry
	require.NoError(t, json.Unmarshal(data, &drift))
	names := []string{}
	for _, d := range drift {
		names = append(names, d.Equipment.Name)
	}
	assert.Contains(t, names, "LHD 201")
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Naledi", domain.RoleAdmin)
	res, _ := doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes", token, map[string]any{
		"equipment_name": "Bolter 301", "description": "No power", "cause": "electrical",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v0/downtimes/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "downtimes.csv")
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Equipment"))
	assert.Contains(t, lines[1], "Bolter 301")
}

func TestEventsPagination(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "Naledi", domain.RoleAdmin)
	for _, name := range []string{"LHD 201", "LHD 202"} {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/v0/downtimes", token, map[string]any{
			"equipment_name": name, "description": "Stalled", "cause": "other",
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v0/events?entity_kind=downtime&limit=1", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var page paginatedEvents
	require.NoError(t, json.Unmarshal(data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "dt-2", page.Items[0].EntityID)
	require.NotEmpty(t, page.NextCursor)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v0/events?entity_kind=downtime&limit=1&cursor="+page.NextCursor, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	page = paginatedEvents{}
	require.NoError(t, json.Unmarshal(data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "dt-1", page.Items[0].EntityID)
	assert.Empty(t, page.NextCursor)

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/v0/events?cursor=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestOpenAPIDocumentIsPublic(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, http.MethodGet, srv.URL+"/v0/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "paths")
}
