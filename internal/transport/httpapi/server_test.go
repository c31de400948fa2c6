package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/infrastructure/changefeed"
	"aeroqualify/internal/infrastructure/notify"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "aeroqualify/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "aeroqualify/internal/infrastructure/persistence/sqlite/uow"
	"aeroqualify/internal/usecase/capa"
)

var (
	admin   = qms.Actor{ID: "u-admin", Role: qms.RoleAdmin}
	qm      = qms.Actor{ID: "u-qm", Name: "Quinn", Role: qms.RoleQualityManager}
	auditor = qms.Actor{ID: "u-aud", Name: "Avery", Role: qms.RoleQualityAuditor}
	manager = qms.Actor{ID: "u-mgr", Role: qms.RoleManager}
	viewer  = qms.Actor{ID: "u-view", Role: qms.RoleViewer}
)

type testAPI struct {
	t      *testing.T
	srv    *httptest.Server
	tokens *Tokens
	hub    *Hub
	db     *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "qms.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	svc := capa.NewService(sqliterepo.NewQMSRepository(db), sqliteuow.NewUnitOfWork(db), capa.Options{
		Notifier: notify.NewLogNotifier(nil),
		Feed:     changefeed.NewLocalFeed(),
	})
	tokens, err := NewTokens("test-secret", "aeroqualify-test", time.Hour)
	require.NoError(t, err)
	hub := NewHub()
	server, err := NewServer(svc, tokens, hub, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv, tokens: tokens, hub: hub, db: db}
}

func (a *testAPI) token(actor qms.Actor) string {
	a.t.Helper()
	raw, err := a.tokens.Issue(actor)
	require.NoError(a.t, err)
	return raw
}

func (a *testAPI) do(actor *qms.Actor, method string, path string, body any) (*http.Response, []byte) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(*actor))
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(a.t, err)
	return resp, buf.Bytes()
}

func decodeError(t *testing.T, raw []byte) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHealthzNeedsNoToken(t *testing.T) {
	api := newTestAPI(t)
	resp, _ := api.do(nil, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthenticationFailures(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.do(nil, http.MethodGet, "/api/v1/cars", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "unauthorized", decodeError(t, raw).Error)

	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/api/v1/cars", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	badResp, err := api.srv.Client().Do(req)
	require.NoError(t, err)
	_ = badResp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, badResp.StatusCode)

	other, err := NewTokens("other-secret", "aeroqualify-test", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue(auditor)
	require.NoError(t, err)
	_, err = api.tokens.Parse(foreign)
	require.ErrorIs(t, err, errInvalidToken)

	api.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale := api.token(auditor)
	api.tokens.now = time.Now
	_, err = api.tokens.Parse(stale)
	require.ErrorIs(t, err, errExpiredToken)
}

func TestTokenRoundTripKeepsActor(t *testing.T) {
	tokens, err := NewTokens("secret", "iss", time.Hour)
	require.NoError(t, err)
	raw, err := tokens.Issue(qm)
	require.NoError(t, err)
	got, err := tokens.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, qm.ID, got.ID)
	require.Equal(t, qm.Role, got.Role)
	require.Equal(t, qm.Name, got.Name)

	_, err = NewTokens(" ", "iss", time.Hour)
	require.Error(t, err)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.do(&viewer, http.MethodPost, "/api/v1/cars", map[string]any{"finding_description": "x"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode, string(raw))
	require.Equal(t, "forbidden", decodeError(t, raw).Error)

	resp, raw = api.do(&auditor, http.MethodPost, "/api/v1/cars", map[string]any{"severity": "Major"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
	require.NotEmpty(t, decodeError(t, raw).Description)

	resp, _ = api.do(&auditor, http.MethodPost, "/api/v1/cars", map[string]any{"status": "Closed"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = api.do(&auditor, http.MethodGet, "/api/v1/cars/CAR-NOPE", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))

	resp, _ = api.do(&auditor, http.MethodGet, "/api/v1/registers/spreadsheets", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(&auditor, http.MethodGet, "/api/v1/risk/rate?severity=6&likelihood=1", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPersistenceErrorCarriesStoreMessage(t *testing.T) {
	api := newTestAPI(t)
	require.NoError(t, api.db.Migrator().DropTable("cars"))

	resp, raw := api.do(&auditor, http.MethodPost, "/api/v1/cars", map[string]any{
		"finding_description": "Torque seal missing on left main wheel nut",
		"severity":            "Major",
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode, string(raw))
	body := decodeError(t, raw)
	require.Equal(t, "persistence_error", body.Error)
	require.Contains(t, body.Description, "no such table: cars")
}

func TestCARLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.do(&auditor, http.MethodPost, "/api/v1/cars", map[string]any{
		"finding_description": "Torque seal missing on left main wheel nut",
		"qms_clause":          "5.3.2",
		"severity":            "Major",
		"responsible_manager": "Maintenance Manager",
		"due_date":            qms.DateOf(time.Now()).AddDays(20).String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var car qms.CAR
	require.NoError(t, json.Unmarshal(raw, &car))
	require.Equal(t, qms.CARStatusOpen, car.Status)
	require.True(t, strings.HasPrefix(car.ID, "CAR-"))

	resp, raw = api.do(&manager, http.MethodPost, "/api/v1/cars/"+car.ID+"/cap", map[string]any{
		"immediate_action":    "Grounded aircraft",
		"root_cause_analysis": "Checklist step skipped",
		"corrective_action":   "Re-torqued and sealed",
		"preventive_action":   "Added duplicate inspection",
		"evidence":            []map[string]any{{"name": "photo.jpg", "url": "https://files.test/photo.jpg"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var capRes capa.CAPResult
	require.NoError(t, json.Unmarshal(raw, &capRes))
	require.Equal(t, qms.CARStatusPendingVerification, capRes.CAR.Status)

	resp, raw = api.do(&qm, http.MethodPost, "/api/v1/cars/"+car.ID+"/verification", map[string]any{
		"checklist": map[string]bool{
			"immediate_action_ok":  true,
			"root_cause_ok":        true,
			"corrective_action_ok": true,
			"preventive_action_ok": true,
			"evidence_ok":          true,
			"recurrence_prevented": true,
		},
		"effectiveness_rating": "Effective",
		"status":               "Closed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var verRes capa.VerificationResult
	require.NoError(t, json.Unmarshal(raw, &verRes))
	require.Equal(t, qms.CARStatusClosed, verRes.CAR.Status)

	resp, raw = api.do(&viewer, http.MethodGet, "/api/v1/cars/"+car.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail capa.CARDetail
	require.NoError(t, json.Unmarshal(raw, &detail))
	require.NotNil(t, detail.CAP)
	require.NotNil(t, detail.Verification)

	resp, raw = api.do(&viewer, http.MethodGet, "/api/v1/score", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var score capa.ScoreReport
	require.NoError(t, json.Unmarshal(raw, &score))
	require.Equal(t, 100, score.Score.Total)

	resp, raw = api.do(&viewer, http.MethodGet, "/api/v1/changes?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var changes []qms.ChangeEntry
	require.NoError(t, json.Unmarshal(raw, &changes))
	require.Len(t, changes, 2)

	resp, _ = api.do(&auditor, http.MethodDelete, "/api/v1/cars/"+car.ID, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = api.do(&admin, http.MethodDelete, "/api/v1/cars/"+car.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestEditCARRejectsStatusField(t *testing.T) {
	api := newTestAPI(t)
	resp, raw := api.do(&auditor, http.MethodPost, "/api/v1/cars", map[string]any{
		"finding_description": "Fire extinguisher overdue",
		"severity":            "Minor",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var car qms.CAR
	require.NoError(t, json.Unmarshal(raw, &car))

	resp, raw = api.do(&auditor, http.MethodPatch, "/api/v1/cars/"+car.ID, map[string]any{"severity": "critical"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var edited qms.CAR
	require.NoError(t, json.Unmarshal(raw, &edited))
	require.Equal(t, qms.SeverityCritical, edited.Severity)
	require.Equal(t, qms.CARStatusOpen, edited.Status)

	resp, _ = api.do(&auditor, http.MethodPatch, "/api/v1/cars/"+car.ID, map[string]any{"status": "Closed"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRiskEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.do(&viewer, http.MethodGet, "/api/v1/risk/rate?severity=5&likelihood=4", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rating qms.Rating
	require.NoError(t, json.Unmarshal(raw, &rating))
	require.Equal(t, 20, rating.Index)
	require.Equal(t, qms.BandCritical, rating.Band)

	resp, raw = api.do(&viewer, http.MethodGet, "/api/v1/risk/matrix", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var matrix [][]qms.MatrixCell
	require.NoError(t, json.Unmarshal(raw, &matrix))
	require.Len(t, matrix, 5)

	resp, raw = api.do(&qm, http.MethodPost, "/api/v1/risks", map[string]any{
		"hazard_description": "Bird strike on approach",
		"severity":           4,
		"likelihood":         3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var risk qms.RiskEntry
	require.NoError(t, json.Unmarshal(raw, &risk))
	require.Equal(t, 12, risk.InherentIndex)

	resp, raw = api.do(&viewer, http.MethodGet, "/api/v1/risks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view capa.RiskView
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Equal(t, 1, view.Stats.Total)
}

func TestHubBroadcastsToWebsocketClients(t *testing.T) {
	api := newTestAPI(t)

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/ws?token=" + api.token(viewer)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return api.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	api.hub.Broadcast(context.Background(), LiveMessage{Type: "reload"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg LiveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "reload", msg.Type)
}

func TestRegisterRecordEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.do(&qm, http.MethodPost, "/api/v1/registers/audits", map[string]any{
		"title":  "Line station audit",
		"status": "Scheduled",
		"date":   qms.DateOf(time.Now()).AddDays(-1).String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var summary capa.ImportSummary
	require.NoError(t, json.Unmarshal(raw, &summary))
	require.Equal(t, 1, summary.Audits)

	resp, raw = api.do(&viewer, http.MethodGet, "/api/v1/registers/audits", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audits []qms.Audit
	require.NoError(t, json.Unmarshal(raw, &audits))
	require.Len(t, audits, 1)

	resp, raw = api.do(&viewer, http.MethodGet, "/api/v1/alerts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts capa.AlertReport
	require.NoError(t, json.Unmarshal(raw, &alerts))
	require.Len(t, alerts.Alerts, 1)
	require.Equal(t, qms.AlertAudit, alerts.Alerts[0].Source)

	resp, _ = api.do(&manager, http.MethodPost, "/api/v1/registers/contractors", map[string]any{"name": "Acme MRO"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = api.do(&admin, http.MethodDelete, "/api/v1/registers/audits/"+audits[0].ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
