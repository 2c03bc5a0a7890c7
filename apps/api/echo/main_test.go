package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/sigenerus/sigenerus/apps/api/echo"
	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/member"
	"github.com/sigenerus/sigenerus/core/user"
	"github.com/sigenerus/sigenerus/services/realtime"
	"github.com/sigenerus/sigenerus/tests"
)

const (
	testSecret = "s3cr3t-test-key"
	testIssuer = "Sigenerus"
	testPwd    = "Sup3r-Secret!"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type fixture struct {
	env *testutil.Env
	app *echoapi.Server
	hub *realtime.Hub
}

func setup(t *testing.T) *fixture {
	t.Helper()

	env := testutil.NewEnv()
	conf := &core.Config{
		TestMode:  true,
		AppName:   testIssuer,
		SecretKey: testSecret,
		Env:       "TEST",
		Realtime: core.RealtimeConfig{
			WriteTimeout:   time.Second,
			PongTimeout:    time.Minute,
			PingPeriod:     50 * time.Second,
			SendBuffer:     16,
			MaxMessageSize: 4096,
		},
		Pagination: core.PaginationConfig{DefaultLimit: 10, MaxLimit: 1000},
	}
	logger := testutil.NewLogger()

	hub := realtime.NewHub(conf.Realtime, logger, nil)
	hub.SetChat(env.Chat)

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       env.Validate,
		Translator:     core.NewTranslator(),
		DisableReqLogs: true,
		RegionSvc:      env.Regions,
		UserSvc:        env.Users,
		CurriculumSvc:  env.Curriculum,
		MemberSvc:      env.Members,
		ActivitySvc:    env.Activity,
		ReportSvc:      env.Report,
		ChatSvc:        env.Chat,
		Hub:            hub,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		_ = app.Shutdown(ctx)
	})
	return &fixture{env: env, app: app, hub: hub}
}

func (f *fixture) createUser(t *testing.T, name, uname, role string) user.User {
	return testutil.CreateUser(t, f.env.UserRepo, name, uname, testPwd, role)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (f *fixture) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		data = marchallObj(t, body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	f.app.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func userToken(t *testing.T, usr user.User) string {
	token, err := echoapi.GenerateToken(echoapi.NewUserClaims(usr, testIssuer, time.Hour), testSecret)
	if err != nil {
		t.Fatalf("userToken() failed: %v", err)
	}
	return token
}

func generusToken(t *testing.T, m member.Member) string {
	token, err := echoapi.GenerateToken(echoapi.NewGenerusClaims(m, testIssuer, time.Hour), testSecret)
	if err != nil {
		t.Fatalf("generusToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

// checkCodeAndData compares the body only when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
