package controller_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	queue "github.com/apardew63/wetarseel-server/internal/infrastructure/queue/port"
	campaign "github.com/apardew63/wetarseel-server/internal/pkg/campaign/domain"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/campaign/persistence/repository/port"
	"github.com/apardew63/wetarseel-server/internal/pkg/campaign/presentation/controller"
)

type stubCampaignRepo struct {
	byID map[string]campaign.Campaign
}

func (s *stubCampaignRepo) Create(ctx context.Context, c campaign.Campaign) (string, error) {
	return "c1", nil
}

func (s *stubCampaignRepo) List(ctx context.Context) ([]campaign.Campaign, error) {
	return nil, nil
}

func (s *stubCampaignRepo) GetByID(ctx context.Context, id string) (*campaign.Campaign, error) {
	if c, ok := s.byID[id]; ok {
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubCampaignRepo) Delete(ctx context.Context, id string) error   { return nil }
func (s *stubCampaignRepo) MarkSent(ctx context.Context, id string) error { return nil }

type fakeQueueClient struct {
	enqueued []queue.Task
	opts     []queue.EnqueueOption
	err      error
}

func (f *fakeQueueClient) Enqueue(ctx context.Context, t queue.Task, opts ...queue.EnqueueOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, t)
	f.opts = append(f.opts, opts...)
	return "task-1", nil
}

func (f *fakeQueueClient) Close() error { return nil }

func newCampaignRouter(repo repository.CampaignRepository, q queue.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctl := &controller.CampaignController{Repo: repo, Queue: q}
	e := gin.New()
	e.POST("/campaign/:id/dispatch", ctl.Dispatch())
	return e
}

func dispatch(e *gin.Engine, id string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/campaign/"+id+"/dispatch", nil)
	e.ServeHTTP(rec, req)
	return rec
}

func TestDispatchEnqueuesTask(t *testing.T) {
	repo := &stubCampaignRepo{byID: map[string]campaign.Campaign{
		"c1": {ID: "c1", Name: "launch", Status: campaign.StatusDraft, Type: campaign.TypeEmail},
	}}
	q := &fakeQueueClient{}
	e := newCampaignRouter(repo, q)

	rec := dispatch(e, "c1")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body %s", rec.Code, rec.Body.String())
	}
	if len(q.enqueued) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(q.enqueued))
	}
	if q.enqueued[0].Type != "campaign:dispatch" {
		t.Errorf("task type = %q", q.enqueued[0].Type)
	}
	if len(q.opts) != 1 || q.opts[0].Queue != "campaigns" {
		t.Errorf("enqueue options = %+v", q.opts)
	}
}

func TestDispatchUnknownCampaign(t *testing.T) {
	e := newCampaignRouter(&stubCampaignRepo{byID: map[string]campaign.Campaign{}}, &fakeQueueClient{})

	if rec := dispatch(e, "nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDispatchAlreadySentCampaign(t *testing.T) {
	repo := &stubCampaignRepo{byID: map[string]campaign.Campaign{
		"c1": {ID: "c1", Status: campaign.StatusSent, Type: campaign.TypeSMS},
	}}
	q := &fakeQueueClient{}
	e := newCampaignRouter(repo, q)

	if rec := dispatch(e, "c1"); rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(q.enqueued) != 0 {
		t.Errorf("enqueued %d tasks for an already sent campaign", len(q.enqueued))
	}
}

func TestDispatchQueueFailure(t *testing.T) {
	repo := &stubCampaignRepo{byID: map[string]campaign.Campaign{
		"c1": {ID: "c1", Status: campaign.StatusDraft, Type: campaign.TypeEmail},
	}}
	e := newCampaignRouter(repo, &fakeQueueClient{err: errors.New("redis down")})

	if rec := dispatch(e, "c1"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestDispatchWithoutQueue(t *testing.T) {
	repo := &stubCampaignRepo{byID: map[string]campaign.Campaign{
		"c1": {ID: "c1", Status: campaign.StatusDraft, Type: campaign.TypeEmail},
	}}
	e := newCampaignRouter(repo, nil)

	if rec := dispatch(e, "c1"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
