package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"library_portal_backend/internal/config"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/repository"
	"library_portal_backend/internal/service"
	"library_portal_backend/internal/testutil"
	"library_portal_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryPages struct {
	mu          sync.Mutex
	bodies      map[string][]byte
	generations map[string]int64
	invalidated []string
}

func (p *memoryPages) Get(ctx context.Context, path string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, ok := p.bodies[path]
	return body, ok
}

func (p *memoryPages) Generation(ctx context.Context, path string) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generations[path], true
}

func (p *memoryPages) Set(ctx context.Context, path string, generation int64, body []byte, ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generations[path] != generation {
		return
	}
	if p.bodies == nil {
		p.bodies = map[string][]byte{}
	}
	p.bodies[path] = body
}

func (p *memoryPages) Invalidate(ctx context.Context, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generations == nil {
		p.generations = map[string]int64{}
	}
	p.generations[path]++
	delete(p.bodies, path)
	p.invalidated = append(p.invalidated, path)
}

type harness struct {
	db       *gorm.DB
	router   *gin.Engine
	pages    *memoryPages
	user     *model.User
	activity *repository.ActivityRepository
}

// withClaims 模拟认证中间件：请求头 X-Test-User 存在时注入声明
func withClaims(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			util.SetUserInContext(c, &util.Claims{UserID: userID})
		}
		c.Next()
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	pages := &memoryPages{}

	users := repository.NewUserRepository(db)
	resources := repository.NewResourceRepository(db)
	activity := repository.NewActivityRepository(db)
	progress := repository.NewReadingProgressRepository(db)

	identity := service.NewIdentityService(users)
	activitySvc := service.NewActivityService(activity, time.Second)
	progressSvc := service.NewReadingProgressService(progress, pages)
	recommendSvc := service.NewRecommendationService(resources, progress, config.PersonalizationConfig{MaxLimit: 10, RatingThreshold: 4})
	dashboardSvc := service.NewDashboardService(activity, progress, repository.NewBookmarkRepository(db), recommendSvc, service.DashboardPolicy{})

	user := testutil.SeedUser(t, db, "http@example.com", nil)

	router := gin.New()
	api := router.Group("/api", withClaims(user.ID))
	{
		api.GET("/dashboard", NewDashboardController(dashboardSvc, identity, pages, time.Minute).GetDashboard)
		api.GET("/recommendations", NewRecommendationController(recommendSvc, identity, 5).GetRecommendations)
		progressCtl := NewReadingProgressController(progressSvc, identity)
		api.PUT("/resources/:id/progress", progressCtl.UpdateProgress)
		api.GET("/resources/:id/progress", progressCtl.GetProgress)
		api.GET("/resources/:id", NewResourceController(resources, activitySvc, identity).GetResource)
		api.POST("/activity", NewActivityController(activitySvc, identity).RecordActivity)
	}

	return &harness{db: db, router: router, pages: pages, user: user, activity: activity}
}

func (h *harness) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-Test-User", "1")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) {
	t.Helper()
	resp := struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
}

func TestDashboardRequiresCaller(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/dashboard", nil, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardIsCachedUntilProgressChanges(t *testing.T) {
	h := newHarness(t)
	book := testutil.SeedResource(t, h.db, "Databases", testutil.Epoch, testutil.WithPages(400))

	w := h.do(t, http.MethodGet, "/api/dashboard", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot model.DashboardSnapshot
	decode(t, w, &snapshot)
	require.Empty(t, snapshot.ContinueReading)
	require.Len(t, snapshot.Recommendations, 1)

	path := service.DashboardPath(h.user.ID)
	cached, ok := h.pages.Get(context.Background(), path)
	require.True(t, ok)
	require.JSONEq(t, w.Body.String(), string(cached))

	w = h.do(t, http.MethodPut, "/api/resources/"+itoa(book.ID)+"/progress", map[string]int{"currentPage": 100, "totalPages": 400}, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{path}, h.pages.invalidated)

	w = h.do(t, http.MethodGet, "/api/dashboard", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	snapshot = model.DashboardSnapshot{}
	decode(t, w, &snapshot)
	require.Len(t, snapshot.ContinueReading, 1)
	require.InDelta(t, 25.0, snapshot.ContinueReading[0].PercentComplete, 0.0001)
	require.Empty(t, snapshot.Recommendations)
}

func TestUpdateProgressValidation(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPut, "/api/resources/3/progress", map[string]int{"currentPage": -1}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPut, "/api/resources/3/progress", map[string]int{"currentPage": 1, "totalPages": 0}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPut, "/api/resources/3/progress", map[string]int{"totalPages": 10}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPut, "/api/resources/abc/progress", map[string]int{"currentPage": 1}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 超出 32 位的 id 不能被截断成另一个资源
	w = h.do(t, http.MethodPut, "/api/resources/4294967296/progress", map[string]int{"currentPage": 1}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressRoundTrip(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/resources/7/progress", nil, true)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodPut, "/api/resources/7/progress", map[string]int{"currentPage": 42}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/resources/7/progress", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var progress model.ReadingProgress
	decode(t, w, &progress)
	require.Equal(t, 42, progress.CurrentPage)
	require.Zero(t, progress.PercentComplete)
}

func TestRecommendationsLimit(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 7; i++ {
		testutil.SeedResource(t, h.db, "book", testutil.Epoch.Add(time.Duration(i)*time.Hour))
	}

	w := h.do(t, http.MethodGet, "/api/recommendations", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var candidates []model.RecommendationCandidate
	decode(t, w, &candidates)
	require.Len(t, candidates, 5)

	w = h.do(t, http.MethodGet, "/api/recommendations?limit=2", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	candidates = nil
	decode(t, w, &candidates)
	require.Len(t, candidates, 2)

	for _, limit := range []string{"0", "11", "many"} {
		w = h.do(t, http.MethodGet, "/api/recommendations?limit="+limit, nil, true)
		require.Equal(t, http.StatusBadRequest, w.Code, limit)
	}

	w = h.do(t, http.MethodGet, "/api/recommendations", nil, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordActivity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	w := h.do(t, http.MethodPost, "/api/activity", map[string]any{"action": "search"}, false)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = h.do(t, http.MethodPost, "/api/activity", map[string]any{"resourceId": 1}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/activity", map[string]any{
		"action": "download",
		"detail": map[string]string{"format": "epub"},
	}, true)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		n, err := h.activity.CountByUser(ctx, h.user.ID)
		return err == nil && n == 1
	}, 5*time.Second, 20*time.Millisecond)

	events, err := h.activity.FindRecentByUser(ctx, h.user.ID, 5)
	require.NoError(t, err)
	require.Equal(t, model.ActionDownload, events[0].Action)
	require.JSONEq(t, `{"format":"epub"}`, string(events[0].Detail))
}

func TestGetResourceRecordsView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	book := testutil.SeedResource(t, h.db, "Distributed Systems", testutil.Epoch)

	w := h.do(t, http.MethodGet, "/api/resources/"+itoa(book.ID+1), nil, true)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/api/resources/"+itoa(book.ID), nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		n, err := h.activity.CountByUser(ctx, h.user.ID)
		return err == nil && n == 1
	}, 5*time.Second, 20*time.Millisecond)

	events, err := h.activity.FindRecentByUser(ctx, h.user.ID, 1)
	require.NoError(t, err)
	require.Equal(t, model.ActionView, events[0].Action)
	require.Equal(t, book.ID, *events[0].ResourceID)
}

// gatedActivities 在第一次读取时停住，直到 release 关闭
type gatedActivities struct {
	inner   service.ActivityReader
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedActivities) FindRecentByUser(ctx context.Context, userID uint, limit int) ([]model.ActivityEvent, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.inner.FindRecentByUser(ctx, userID, limit)
}

func TestDashboardRenderStartedBeforeInvalidationIsNotCached(t *testing.T) {
	h := newHarness(t)
	book := testutil.SeedResource(t, h.db, "Cryptography", testutil.Epoch, testutil.WithPages(300))

	progress := repository.NewReadingProgressRepository(h.db)
	recommendations := service.NewRecommendationService(
		repository.NewResourceRepository(h.db),
		progress,
		config.PersonalizationConfig{MaxLimit: 10, RatingThreshold: 4},
	)
	gate := &gatedActivities{inner: h.activity, entered: make(chan struct{}), release: make(chan struct{})}
	dashboards := service.NewDashboardService(gate, progress, repository.NewBookmarkRepository(h.db), recommendations,
		service.DashboardPolicy{ReadTimeout: 10 * time.Second})

	slow := gin.New()
	slow.GET("/api/dashboard", withClaims(h.user.ID),
		NewDashboardController(dashboards, service.NewIdentityService(repository.NewUserRepository(h.db)), h.pages, time.Minute).GetDashboard)
	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.Header.Set("X-Test-User", "1")
		w := httptest.NewRecorder()
		slow.ServeHTTP(w, req)
		return w
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- get() }()

	select {
	case <-gate.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("dashboard render did not start")
	}

	w := h.do(t, http.MethodPut, "/api/resources/"+itoa(book.ID)+"/progress", map[string]int{"currentPage": 30, "totalPages": 300}, true)
	require.Equal(t, http.StatusOK, w.Code)
	close(gate.release)

	select {
	case w = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dashboard render did not finish")
	}
	require.Equal(t, http.StatusOK, w.Code)

	_, cached := h.pages.Get(context.Background(), service.DashboardPath(h.user.ID))
	require.False(t, cached)

	w = get()
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot model.DashboardSnapshot
	decode(t, w, &snapshot)
	require.Len(t, snapshot.ContinueReading, 1)
	require.Equal(t, book.ID, snapshot.ContinueReading[0].ResourceID)
	require.Empty(t, snapshot.Recommendations)
}
