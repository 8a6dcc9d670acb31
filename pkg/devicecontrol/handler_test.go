package devicecontrol

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/nsyszr/toybroker/pkg/events"
	"github.com/nsyszr/toybroker/pkg/model"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/storage"
	"github.com/nsyszr/toybroker/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionRecorder struct {
	sessions []*model.Session
}

func (r *sessionRecorder) PublishSession(m *model.Session) error {
	r.sessions = append(r.sessions, m)
	return nil
}

func (r *sessionRecorder) PublishCommand(string, *events.CommandDetails) error {
	return nil
}

func postCallback(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, CallbackReply) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/lovense/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.handleCallback(e.NewContext(req, rec)))

	reply := CallbackReply{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return rec, reply
}

const callbackBody = `{
	"uid": "alice",
	"utoken": "ut-1",
	"domain": "192-168-1-44.lovense.club",
	"httpPort": 20010,
	"httpsPort": "30010",
	"wsPort": 20011,
	"wssPort": 30011,
	"platform": "android",
	"appVersion": "6.2.1",
	"toys": {
		"c44e6b1b": {"id": "c44e6b1b", "name": "lush", "nickName": "L3", "status": 1, "battery": 87, "version": "3"},
		"f082c00246fa": {"name": "edge", "status": "0", "battery": 12}
	}
}`

func TestCallbackStoresSession(t *testing.T) {
	store := memory.NewStore(nil).Sessions()
	pub := &sessionRecorder{}
	h := NewHandler(store, pub, "default")

	rec, reply := postCallback(t, h, callbackBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reply.Result)
	assert.Equal(t, "OK", reply.Message)

	m, err := store.FindByUID("alice")
	require.NoError(t, err)
	assert.Equal(t, "192-168-1-44.lovense.club", m.Domain)
	assert.Equal(t, 30010, m.HTTPSPort)
	assert.Equal(t, 20010, m.HTTPPort)
	assert.Equal(t, 20011, m.WSPort)
	assert.Equal(t, 30011, m.WSSPort)
	assert.Equal(t, "android", m.Platform)
	assert.Equal(t, "6.2.1", m.AppVersion)
	assert.Equal(t, "ut-1", m.UToken)
	require.Len(t, m.Toys, 2)

	lush := m.Toys["c44e6b1b"]
	assert.Equal(t, "lush", lush.Name)
	assert.Equal(t, "L3", lush.NickName)
	assert.Equal(t, model.ToyStatusConnected, lush.Status)
	assert.Equal(t, 87, lush.Battery)

	edge := m.Toys["f082c00246fa"]
	assert.Equal(t, "f082c00246fa", edge.ID)
	assert.Equal(t, model.ToyStatusDisconnected, edge.Status)

	require.Len(t, pub.sessions, 1)
	assert.Equal(t, "alice", pub.sessions[0].UID)
}

func TestCallbackWithoutUIDUsesDefault(t *testing.T) {
	store := memory.NewStore(nil).Sessions()
	h := NewHandler(store, nil, "default")

	rec, _ := postCallback(t, h, `{"domain":"10-0-0-2.lovense.club","httpsPort":30010}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	m, err := store.FindByUID("default")
	require.NoError(t, err)
	assert.Equal(t, "10-0-0-2.lovense.club", m.Domain)
	assert.Empty(t, m.Toys)

	rec, _ = postCallback(t, h, `{"uid":"  ","domain":"10-0-0-3.lovense.club"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	m, err = store.FindByUID("default")
	require.NoError(t, err)
	assert.Equal(t, "10-0-0-3.lovense.club", m.Domain)
}

func TestCallbackMalformedBodyWritesNothing(t *testing.T) {
	store := memory.NewStore(nil).Sessions()
	h := NewHandler(store, nil, "default")

	for _, body := range []string{``, `not json`, `{"uid":"alice",`, `[1,2]`, `null`} {
		rec, reply := postCallback(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.False(t, reply.Result)
		assert.NotEmpty(t, reply.Message)
	}

	all, err := store.FetchAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = store.FindByUID("alice")
	assert.Equal(t, storage.ErrNotFound, err)
}

func TestCallbackReplacesPreviousSession(t *testing.T) {
	store := memory.NewStore(nil).Sessions()
	h := NewHandler(store, nil, "default")

	postCallback(t, h, callbackBody)
	postCallback(t, h, `{"uid":"alice","domain":"10-0-0-9.lovense.club","httpPort":20010}`)

	m, err := store.FindByUID("alice")
	require.NoError(t, err)
	assert.Equal(t, "10-0-0-9.lovense.club", m.Domain)
	assert.Equal(t, 0, m.HTTPSPort)
	assert.Empty(t, m.Platform)
	assert.Empty(t, m.Toys)
}

func TestParseToysVariants(t *testing.T) {
	now := time.Date(2026, 1, 21, 10, 0, 0, 0, time.UTC)

	m, err := ParseCallback([]byte(`{"uid":"a","toys":"{\"t1\":{\"name\":\"nora\",\"status\":1}}"}`), "default", now)
	require.NoError(t, err)
	require.Contains(t, m.Toys, "t1")
	assert.Equal(t, "nora", m.Toys["t1"].Name)
	assert.Equal(t, now, m.ConnectedAt)

	m, err = ParseCallback([]byte(`{"uid":"a","toys":"not json"}`), "default", now)
	require.NoError(t, err)
	assert.Empty(t, m.Toys)

	m, err = ParseCallback([]byte(`{"uid":"a","toys":[{"id":"x1","status":1},{"name":"max"},42]}`), "default", now)
	require.NoError(t, err)
	assert.Len(t, m.Toys, 2)
	assert.Equal(t, "unknown", m.Toys["x1"].Name)
	assert.Contains(t, m.Toys, "toy1")

	m, err = ParseCallback([]byte(`{"uid":12345,"toys":{"a":"bogus"}}`), "default", now)
	require.NoError(t, err)
	assert.Equal(t, "12345", m.UID)
	assert.Empty(t, m.Toys)
}

func TestParseCallbackRejectsInvalidPorts(t *testing.T) {
	now := time.Now()

	for _, body := range []string{
		`{"uid":"a","httpsPort":1e20,"httpPort":20010}`,
		`{"uid":"a","httpsPort":"70000"}`,
		`{"uid":"a","wsPort":-1}`,
	} {
		_, err := ParseCallback([]byte(body), "default", now)
		assert.True(t, proto.IsReason(err, proto.ErrReasonParseFailure), body)
	}
}

func TestParseCallbackClampsBattery(t *testing.T) {
	m, err := ParseCallback([]byte(`{"uid":"a","toys":{"t1":{"battery":-40},"t2":{"battery":"140"},"t3":{"battery":55}}}`), "default", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Toys["t1"].Battery)
	assert.Equal(t, 100, m.Toys["t2"].Battery)
	assert.Equal(t, 55, m.Toys["t3"].Battery)
}

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	NewHandler(memory.NewStore(nil).Sessions(), nil, "default").RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/lovense/callback", strings.NewReader(`{"uid":"bob"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
