package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/nsyszr/toybroker/pkg/authority"
	"github.com/nsyszr/toybroker/pkg/controller"
	"github.com/nsyszr/toybroker/pkg/model"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/router"
	"github.com/nsyszr/toybroker/pkg/storage"
	"github.com/nsyszr/toybroker/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	uids []string
	cmds []*proto.Command
	err  error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, uid string, cmd *proto.Command) (*router.Result, error) {
	f.uids = append(f.uids, uid)
	f.cmds = append(f.cmds, cmd)
	if f.err != nil {
		return nil, f.err
	}
	code := 200
	return &router.Result{Route: router.RouteDirect, StatusCode: 200, Reply: &proto.Reply{Code: &code}}, nil
}

type fakePairing struct {
	err    error
	latest *authority.PairingCode
}

func (f *fakePairing) PairingCode(ctx context.Context, uid string) (*authority.PairingCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.latest = &authority.PairingCode{UID: uid, URL: "https://qr.example.com/" + uid + ".png", CreatedAt: time.Now()}
	return f.latest, nil
}

func (f *fakePairing) LatestPairingCode() (*authority.PairingCode, bool) {
	return f.latest, f.latest != nil
}

type fixture struct {
	e        *echo.Echo
	d        *fakeDispatcher
	pairing  *fakePairing
	sessions storage.SessionStore
}

func newFixture() *fixture {
	f := &fixture{
		e:        echo.New(),
		d:        &fakeDispatcher{},
		pairing:  &fakePairing{},
		sessions: memory.NewStore(nil).Sessions(),
	}
	ctrl := controller.New("default", f.d, f.sessions, f.pairing, nil)
	NewHandler(nil, ctrl).RegisterRoutes(f.e)
	return f
}

func (f *fixture) do(method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestVibrateCommand(t *testing.T) {
	f := newFixture()

	rec, out := f.do(http.MethodPost, "/api/v1/commands/vibrate",
		`{"user_id":"alice","intensity":12,"duration":10,"loop_running":3,"loop_pause":2,"toy":"t1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "direct", out["route"])
	assert.NotEmpty(t, out["request_id"])

	require.Len(t, f.d.cmds, 1)
	cmd := f.d.cmds[0]
	assert.Equal(t, "alice", f.d.uids[0])
	assert.Equal(t, "Vibrate:12", cmd.Action)
	assert.Equal(t, 10, cmd.TimeSec)
	assert.Equal(t, 3, cmd.LoopRunningSec)
	assert.Equal(t, 2, cmd.LoopPauseSec)
	assert.Equal(t, "t1", cmd.Toy)
}

func TestAxisRoutes(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(http.MethodPost, "/api/v1/commands/rotate", `{"intensity":20}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(http.MethodPost, "/api/v1/commands/pump", `{"intensity":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.d.cmds, 2)
	assert.Equal(t, "Rotate:20", f.d.cmds[0].Action)
	assert.Equal(t, "Pump:3", f.d.cmds[1].Action)
	assert.Equal(t, "default", f.d.uids[0])
}

func TestValidationFailureIsBadRequest(t *testing.T) {
	f := newFixture()

	rec, out := f.do(http.MethodPost, "/api/v1/commands/pump", `{"intensity":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "ERR_VALIDATION_FAILURE", out["reason"])
	assert.Contains(t, out["error"], "pump")
	assert.Empty(t, f.d.cmds)
}

func TestMalformedBody(t *testing.T) {
	f := newFixture()

	rec, out := f.do(http.MethodPost, "/api/v1/commands/vibrate", `{"intensity":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR_PARSE_FAILURE", out["reason"])
	assert.Empty(t, f.d.cmds)
}

func TestDispatchFailureStatus(t *testing.T) {
	f := newFixture()

	f.d.err = proto.NewVendorRejectionError("User not online")
	rec, out := f.do(http.MethodPost, "/api/v1/commands/stop", `{"user_id":"alice"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "User not online", out["error"])

	f.d.err = proto.NewConfigurationMissingError("developer token not configured")
	rec, _ = f.do(http.MethodPost, "/api/v1/commands/stop", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMultiPatternPreset(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(http.MethodPost, "/api/v1/commands/multi", `{"vibrate":5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Vibrate:5", f.d.cmds[0].Action)

	rec, _ = f.do(http.MethodPost, "/api/v1/commands/multi", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(http.MethodPost, "/api/v1/commands/pattern", `{"strength_sequence":"20;10;5"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "V:1;F:v;S:1000#", f.d.cmds[1].Rule)

	rec, out := f.do(http.MethodPost, "/api/v1/commands/pattern", `{"strength_sequence":"20","interval_ms":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "interval_ms")

	rec, _ = f.do(http.MethodPost, "/api/v1/commands/preset", `{"name":"Fireworks","duration":5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fireworks", f.d.cmds[2].Action)

	rec, out = f.do(http.MethodPost, "/api/v1/commands/preset", `{"name":"wiggle"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "earthquake")
}

func TestUsersAndToys(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.sessions.Upsert(&model.Session{UID: "zoe", Platform: "ios"}))
	require.NoError(t, f.sessions.Upsert(&model.Session{
		UID:      "alice",
		Platform: "android",
		Toys: map[string]model.Toy{
			"b2": {ID: "b2", Name: "nora", Status: model.ToyStatusDisconnected},
			"a1": {ID: "a1", Name: "lush", NickName: "L", Status: model.ToyStatusConnected, Battery: 90},
		},
	}))

	rec, out := f.do(http.MethodGet, "/api/v1/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, out["count"])
	users := out["users"].([]interface{})
	assert.Equal(t, "alice", users[0].(map[string]interface{})["uid"])
	assert.Equal(t, "zoe", users[1].(map[string]interface{})["uid"])

	rec, out = f.do(http.MethodGet, "/api/v1/users/alice/toys", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, out["count"])
	toys := out["toys"].([]interface{})
	first := toys[0].(map[string]interface{})
	assert.Equal(t, "a1", first["id"])
	assert.Equal(t, "L", first["nickname"])
	assert.Equal(t, "connected", first["status"])
	assert.EqualValues(t, 90, first["battery"])
	assert.Equal(t, "disconnected", toys[1].(map[string]interface{})["status"])

	rec, _ = f.do(http.MethodGet, "/api/v1/users/nobody/toys", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPairingCode(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(http.MethodGet, "/api/v1/qrcode", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out := f.do(http.MethodPost, "/api/v1/qrcode", `{"user_id":"alice"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://qr.example.com/alice.png", out["qrcode_url"])

	rec, out = f.do(http.MethodPost, "/api/v1/qrcode", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default", out["uid"])

	rec, out = f.do(http.MethodGet, "/api/v1/qrcode", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default", out["uid"])

	f.pairing.err = proto.NewVendorRejectionError("invalid developer token")
	rec, out = f.do(http.MethodPost, "/api/v1/qrcode", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "invalid developer token", out["error"])
}

func TestRealtimeEventsWithoutNATS(t *testing.T) {
	f := newFixture()
	rec, out := f.do(http.MethodGet, "/api/v1/realtime-events", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "ERR_CONFIGURATION_MISSING", out["reason"])
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture()

	rec, out := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	f.e.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), "go_goroutines")
}
