package handler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/model"
)

type fakeStore struct {
	identities []model.Identity
	history    []model.MatchHistory
	failCreate bool

	gotPage, gotLimit int
}

func (s *fakeStore) CreateIdentity(id *model.Identity) error {
	if s.failCreate {
		return errors.New("db down")
	}
	s.identities = append(s.identities, *id)
	return nil
}

func (s *fakeStore) GetHistory(playerID string, page, limit int) ([]model.MatchHistory, error) {
	s.gotPage, s.gotLimit = page, limit
	var out []model.MatchHistory
	for _, h := range s.history {
		if h.PlayerID == playerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func newService(store Store) *UserService {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return &UserService{Store: store, Secret: []byte("k"), TokenTTL: time.Hour, Log: logrus.NewEntry(lg)}
}

func TestIssueIdentity(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	resp, err := svc.IssueIdentity(context.Background(), &pb.IssueIdentityReq{Name: "  Ana "})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Name != "Ana" || resp.Token == "" {
		t.Fatalf("resp = %+v", resp)
	}
	if _, err := uuid.Parse(resp.PlayerID); err != nil {
		t.Fatalf("player id %q is not a uuid", resp.PlayerID)
	}
	if len(store.identities) != 1 || store.identities[0].PlayerID != resp.PlayerID {
		t.Fatalf("identity not stored: %+v", store.identities)
	}

	again, _ := svc.IssueIdentity(context.Background(), &pb.IssueIdentityReq{Name: "Ana"})
	if again.PlayerID == resp.PlayerID {
		t.Fatal("same identity issued twice")
	}
}

func TestIssueIdentityStoreFailure(t *testing.T) {
	svc := newService(&fakeStore{failCreate: true})
	_, err := svc.IssueIdentity(context.Background(), &pb.IssueIdentityReq{Name: "Ana"})
	if status.Code(err) != codes.Internal {
		t.Fatalf("err = %v, want Internal", err)
	}
}

func TestGetHistory(t *testing.T) {
	store := &fakeStore{history: []model.MatchHistory{
		{PlayerID: "p1", MatchID: "m-1", RoomCode: "ABC234", Reason: "empty", HitsDealt: 3, EndedAt: 10},
		{PlayerID: "p2", MatchID: "m-1", RoomCode: "ABC234"},
	}}
	svc := newService(store)

	resp, err := svc.GetHistory(context.Background(), &pb.GetHistoryReq{PlayerID: "p1", Limit: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.History) != 1 || resp.History[0].MatchID != "m-1" || resp.History[0].RoomID != "ABC234" || resp.History[0].HitsDealt != 3 {
		t.Fatalf("history = %+v", resp.History)
	}
	if store.gotPage != 1 || store.gotLimit != maxPageSize {
		t.Fatalf("paging = %d/%d", store.gotPage, store.gotLimit)
	}

	if _, err := svc.GetHistory(context.Background(), &pb.GetHistoryReq{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("missing player err = %v", err)
	}
}
