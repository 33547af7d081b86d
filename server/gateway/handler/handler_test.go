package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/gateway/middleware"
)

type fakeUsers struct {
	lastName    string
	lastHistory *pb.GetHistoryReq
}

func (f *fakeUsers) IssueIdentity(_ context.Context, in *pb.IssueIdentityReq, _ ...grpc.CallOption) (*pb.IssueIdentityResp, error) {
	f.lastName = in.Name
	return &pb.IssueIdentityResp{Token: "tok", PlayerID: "p-1", Name: "Nave-0001"}, nil
}

func (f *fakeUsers) GetHistory(_ context.Context, in *pb.GetHistoryReq, _ ...grpc.CallOption) (*pb.GetHistoryResp, error) {
	f.lastHistory = in
	return &pb.GetHistoryResp{History: []pb.MatchRecord{{MatchID: "ABC234"}}}, nil
}

type fakeGames struct {
	startResp *pb.StartRoomResp
	lastStart *pb.StartRoomReq
	listErr   error
}

func (f *fakeGames) StartRoom(_ context.Context, in *pb.StartRoomReq, _ ...grpc.CallOption) (*pb.StartRoomResp, error) {
	f.lastStart = in
	return f.startResp, nil
}

func (f *fakeGames) StopRoom(context.Context, *pb.StopRoomReq, ...grpc.CallOption) (*pb.StopRoomResp, error) {
	return &pb.StopRoomResp{OK: true}, nil
}

func (f *fakeGames) ListRooms(context.Context, *pb.ListRoomsReq, ...grpc.CallOption) (*pb.ListRoomsResp, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &pb.ListRoomsResp{}, nil
}

func newTestAPI(users *fakeUsers, games *fakeGames) (*API, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	api := &API{Users: users, Games: games, Log: logrus.NewEntry(lg)}

	r := gin.New()
	asPlayer := func(c *gin.Context) {
		c.Set(middleware.CtxPlayerID, "p-9")
		c.Next()
	}
	r.POST("/api/auth", api.HandleAuth)
	r.GET("/api/user/history", asPlayer, api.HandleGetHistory)
	r.GET("/api/match/rooms", asPlayer, api.HandleListRooms)
	r.POST("/api/match/start", asPlayer, api.HandleStartRoom)
	return api, r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleAuth(t *testing.T) {
	users := &fakeUsers{}
	_, r := newTestAPI(users, &fakeGames{})

	w := do(r, http.MethodPost, "/api/auth", `{"name":"Ana"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["token"] != "tok" || body["playerId"] != "p-1" || users.lastName != "Ana" {
		t.Fatalf("body = %v, name sent = %q", body, users.lastName)
	}

	if w := do(r, http.MethodPost, "/api/auth", ""); w.Code != http.StatusOK {
		t.Fatalf("empty body status = %d", w.Code)
	}
}

func TestHandleGetHistory(t *testing.T) {
	users := &fakeUsers{}
	_, r := newTestAPI(users, &fakeGames{})

	w := do(r, http.MethodGet, "/api/user/history?page=2", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ABC234") {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if users.lastHistory.PlayerID != "p-9" || users.lastHistory.Page != 2 || users.lastHistory.Limit != 10 {
		t.Fatalf("request = %+v", users.lastHistory)
	}
}

func TestHandleStartRoom(t *testing.T) {
	games := &fakeGames{startResp: &pb.StartRoomResp{OK: false, Error: "NOT_HOST"}}
	_, r := newTestAPI(&fakeUsers{}, games)

	if w := do(r, http.MethodPost, "/api/match/start", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing room status = %d", w.Code)
	}

	w := do(r, http.MethodPost, "/api/match/start", `{"room_id":"ABC234"}`)
	if w.Code != http.StatusForbidden || !strings.Contains(w.Body.String(), "NOT_HOST") {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if games.lastStart.PlayerID != "p-9" || games.lastStart.RoomID != "ABC234" {
		t.Fatalf("request = %+v", games.lastStart)
	}

	games.startResp = &pb.StartRoomResp{OK: true}
	if w := do(r, http.MethodPost, "/api/match/start", `{"room_id":"ABC234"}`); w.Code != http.StatusOK {
		t.Fatalf("host start status = %d", w.Code)
	}
}

func TestHandleListRooms(t *testing.T) {
	games := &fakeGames{}
	_, r := newTestAPI(&fakeUsers{}, games)

	w := do(r, http.MethodGet, "/api/match/rooms", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"rooms":[]}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}

	games.listErr = errors.New("down")
	if w := do(r, http.MethodGet, "/api/match/rooms", ""); w.Code != http.StatusBadGateway {
		t.Fatalf("backend failure status = %d", w.Code)
	}
}
