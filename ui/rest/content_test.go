package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	domainContent "github.com/linkpilot-ai/linkpilot/domains/content"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/ui/rest/middleware"
)

// fakeContentService implements IContentUsecase with just enough behavior for
// the handler tests.
type fakeContentService struct {
	items        []domainContent.Item
	lastUserID   string
	lastStatus   domainContent.Status
	scheduledAt  time.Time
	scheduledID  string
	getErr       error
	publishedIDs []string
}

func (f *fakeContentService) List(ctx context.Context, userID string, status domainContent.Status) ([]domainContent.Item, error) {
	f.lastUserID = userID
	f.lastStatus = status
	return f.items, nil
}

func (f *fakeContentService) Get(ctx context.Context, userID, id string) (domainContent.Item, error) {
	if f.getErr != nil {
		return domainContent.Item{}, f.getErr
	}
	return domainContent.Item{ID: id, UserID: userID}, nil
}

func (f *fakeContentService) Update(ctx context.Context, userID, id string, req domainContent.UpdateRequest) (domainContent.Item, error) {
	return domainContent.Item{ID: id}, nil
}

func (f *fakeContentService) Delete(ctx context.Context, userID, id string) error {
	return nil
}

func (f *fakeContentService) Schedule(ctx context.Context, userID, id string, req domainContent.ScheduleRequest) (domainContent.Item, error) {
	f.scheduledID = id
	f.scheduledAt = req.ScheduledAt
	return domainContent.Item{ID: id, Status: domainContent.StatusScheduled, ScheduledAt: &req.ScheduledAt}, nil
}

func (f *fakeContentService) PublishNow(ctx context.Context, userID, id string) (domainContent.Item, error) {
	f.publishedIDs = append(f.publishedIDs, id)
	return domainContent.Item{ID: id, Status: domainContent.StatusScheduled}, nil
}

func (f *fakeContentService) Reschedule(ctx context.Context, userID, id string, req domainContent.ScheduleRequest) (domainContent.Item, error) {
	return domainContent.Item{ID: id, Status: domainContent.StatusScheduled}, nil
}

type envelope struct {
	Status  int            `json:"status"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Results map[string]any `json:"results"`
}

func newContentApp(service *fakeContentService) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Recovery())
	InitRestContent(app, service, nil, nil)
	return app
}

func TestContentList(t *testing.T) {
	service := &fakeContentService{items: []domainContent.Item{{ID: "c1"}, {ID: "c2"}}}
	app := newContentApp(service)

	req := httptest.NewRequest(http.MethodGet, "/content?status=draft", nil)
	req.Header.Set("X-User-ID", "u1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != "u1" {
		t.Fatalf("expected userID 'u1', got %q", service.lastUserID)
	}
	if service.lastStatus != domainContent.StatusDraft {
		t.Fatalf("expected status filter 'draft', got %q", service.lastStatus)
	}
}

func TestContentListRequiresUser(t *testing.T) {
	app := newContentApp(&fakeContentService{})

	req := httptest.NewRequest(http.MethodGet, "/content", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test returned error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 without X-User-ID, got %d", resp.StatusCode)
	}

	var env envelope
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if env.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected code VALIDATION_ERROR, got %q", env.Code)
	}
}

func TestContentGetNotFoundMapsTo404(t *testing.T) {
	service := &fakeContentService{getErr: pkgError.NotFoundError("content item not found")}
	app := newContentApp(service)

	req := httptest.NewRequest(http.MethodGet, "/content/missing", nil)
	req.Header.Set("X-User-ID", "u1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test returned error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}

	var env envelope
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if env.Code != "NOT_FOUND_ERROR" {
		t.Fatalf("expected code NOT_FOUND_ERROR, got %q", env.Code)
	}
}

func TestContentSchedule(t *testing.T) {
	service := &fakeContentService{}
	app := newContentApp(service)

	at := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	payload, _ := json.Marshal(map[string]any{"scheduled_at": at})
	req := httptest.NewRequest(http.MethodPost, "/content/c1/schedule", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if service.scheduledID != "c1" {
		t.Fatalf("expected scheduled id 'c1', got %q", service.scheduledID)
	}
	if !service.scheduledAt.Equal(at) {
		t.Fatalf("expected scheduled_at %s, got %s", at, service.scheduledAt)
	}
}

func TestContentScheduleRejectsMalformedBody(t *testing.T) {
	app := newContentApp(&fakeContentService{})

	req := httptest.NewRequest(http.MethodPost, "/content/c1/schedule", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test returned error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestContentPublishNow(t *testing.T) {
	service := &fakeContentService{}
	app := newContentApp(service)

	req := httptest.NewRequest(http.MethodPost, "/content/c7/publish", nil)
	req.Header.Set("X-User-ID", "u1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if len(service.publishedIDs) != 1 || service.publishedIDs[0] != "c7" {
		t.Fatalf("expected publish dispatch for 'c7', got %v", service.publishedIDs)
	}
}
