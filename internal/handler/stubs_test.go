package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/crm-service/internal/auth"
	"github.com/maxviazov/crm-service/internal/handler"
	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/search"
	"github.com/maxviazov/crm-service/internal/service"
)

const goodToken = "good-token"

var testUser = model.Identity{UserID: "user-1", Email: "u1@example.com"}

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

// stubVerifier accepts exactly goodToken.
type stubVerifier struct{}

func (stubVerifier) Verify(raw string) (model.Identity, error) {
	if raw == goodToken {
		return testUser, nil
	}
	return model.Identity{}, auth.ErrUnauthenticated
}

// fakeInvalid replicates aggregated validation error semantics.
type fakeInvalid struct{ fe []service.FieldError }

func (f *fakeInvalid) Error() string                { return service.ErrInvalidInput.Error() }
func (f *fakeInvalid) Unwrap() error                { return service.ErrInvalidInput }
func (f *fakeInvalid) Fields() []service.FieldError { return f.fe }

// stubContactService records the last owner and search config it saw.
type stubContactService struct {
	contact   model.Contact
	err       error
	lastOwner model.Identity
	lastID    int64
	lastIn    service.ContactInput
	lastCfg   search.Config
	listing   service.Listing[model.Contact]
}

func (s *stubContactService) CreateContact(_ context.Context, owner model.Identity, in service.ContactInput) (model.Contact, error) {
	s.lastOwner, s.lastIn = owner, in
	return s.contact, s.err
}
func (s *stubContactService) GetContact(_ context.Context, owner model.Identity, id int64) (model.Contact, error) {
	s.lastOwner, s.lastID = owner, id
	return s.contact, s.err
}
func (s *stubContactService) UpdateContact(_ context.Context, owner model.Identity, id int64, in service.ContactInput) (model.Contact, error) {
	s.lastOwner, s.lastID, s.lastIn = owner, id, in
	return s.contact, s.err
}
func (s *stubContactService) DeleteContact(_ context.Context, owner model.Identity, id int64) error {
	s.lastOwner, s.lastID = owner, id
	return s.err
}
func (s *stubContactService) SearchContacts(_ context.Context, owner model.Identity, cfg search.Config) (service.Listing[model.Contact], error) {
	s.lastOwner, s.lastCfg = owner, cfg
	return s.listing, s.err
}

type stubDealService struct {
	deal      model.Deal
	err       error
	lastOwner model.Identity
	lastID    int64
	lastIn    service.DealInput
	lastCfg   search.Config
	listing   service.Listing[model.Deal]
}

func (s *stubDealService) CreateDeal(_ context.Context, owner model.Identity, in service.DealInput) (model.Deal, error) {
	s.lastOwner, s.lastIn = owner, in
	return s.deal, s.err
}
func (s *stubDealService) GetDeal(_ context.Context, owner model.Identity, id int64) (model.Deal, error) {
	s.lastOwner, s.lastID = owner, id
	return s.deal, s.err
}
func (s *stubDealService) UpdateDeal(_ context.Context, owner model.Identity, id int64, in service.DealInput) (model.Deal, error) {
	s.lastOwner, s.lastID, s.lastIn = owner, id, in
	return s.deal, s.err
}
func (s *stubDealService) DeleteDeal(_ context.Context, owner model.Identity, id int64) error {
	s.lastOwner, s.lastID = owner, id
	return s.err
}
func (s *stubDealService) SearchDeals(_ context.Context, owner model.Identity, cfg search.Config) (service.Listing[model.Deal], error) {
	s.lastOwner, s.lastCfg = owner, cfg
	return s.listing, s.err
}

type stubTaskService struct {
	task       model.Task
	err        error
	completeID int64
}

func (s *stubTaskService) CreateTask(context.Context, model.Identity, service.TaskInput) (model.Task, error) {
	return s.task, s.err
}
func (s *stubTaskService) GetTask(context.Context, model.Identity, int64) (model.Task, error) {
	return s.task, s.err
}
func (s *stubTaskService) UpdateTask(context.Context, model.Identity, int64, service.TaskInput) (model.Task, error) {
	return s.task, s.err
}
func (s *stubTaskService) DeleteTask(context.Context, model.Identity, int64) error { return s.err }
func (s *stubTaskService) CompleteTask(_ context.Context, _ model.Identity, id int64) (model.Task, error) {
	s.completeID = id
	return s.task, s.err
}
func (s *stubTaskService) SearchTasks(context.Context, model.Identity, search.Config) (service.Listing[model.Task], error) {
	return service.Listing[model.Task]{}, s.err
}

type stubDashboardService struct {
	summary model.DashboardSummary
	err     error
}

func (s *stubDashboardService) Summary(context.Context, model.Identity) (model.DashboardSummary, error) {
	return s.summary, s.err
}

var (
	_ service.ContactService   = (*stubContactService)(nil)
	_ service.DealService      = (*stubDealService)(nil)
	_ service.TaskService      = (*stubTaskService)(nil)
	_ service.DashboardService = (*stubDashboardService)(nil)
)

// newRouter wires stubs; nil services are replaced with empty ones.
func newRouter(d handler.Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if d.Pinger == nil {
		d.Pinger = stubPinger{}
	}
	if d.Verifier == nil {
		d.Verifier = stubVerifier{}
	}
	if d.Contacts == nil {
		d.Contacts = &stubContactService{}
	}
	if d.Deals == nil {
		d.Deals = &stubDealService{}
	}
	if d.Tasks == nil {
		d.Tasks = &stubTaskService{}
	}
	if d.Dashboard == nil {
		d.Dashboard = &stubDashboardService{}
	}
	d.Logger = zerolog.New(io.Discard)
	r := gin.New()
	handler.Register(r, d)
	return r
}

// do performs an authenticated request unless token is empty.
func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
