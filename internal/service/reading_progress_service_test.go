package service

import (
	"context"
	"errors"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/repository"
	"library_portal_backend/internal/testutil"
	"library_portal_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingPages struct {
	invalidated []string
}

func (p *recordingPages) Invalidate(ctx context.Context, path string) {
	p.invalidated = append(p.invalidated, path)
}

type failingProgressStore struct{}

func (failingProgressStore) Upsert(ctx context.Context, progress *model.ReadingProgress) error {
	return errors.New("deadlock detected")
}

func (failingProgressStore) FindByUserAndResource(ctx context.Context, userID, resourceID uint) (*model.ReadingProgress, error) {
	return nil, errors.New("deadlock detected")
}

func newProgressFixture(t *testing.T) (*ReadingProgressService, *repository.ReadingProgressRepository, *recordingPages, *model.User, *model.Resource) {
	t.Helper()
	db := testutil.DB(t)
	repo := repository.NewReadingProgressRepository(db)
	pages := &recordingPages{}
	svc := NewReadingProgressService(repo, pages)
	svc.now = func() time.Time { return testutil.Epoch }

	user := testutil.SeedUser(t, db, "progress@example.com", nil)
	book := testutil.SeedResource(t, db, "Operating Systems", testutil.Epoch, testutil.WithPages(200))
	return svc, repo, pages, user, book
}

func TestProgressUpdateComputesPercent(t *testing.T) {
	svc, repo, pages, user, book := newProgressFixture(t)
	ctx := testutil.Ctx(t)

	require.NoError(t, svc.Update(ctx, user.Caller(), book.ID, 50, util.IntPtr(200)))

	got, err := repo.FindByUserAndResource(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.InDelta(t, 25.0, got.PercentComplete, 0.0001)
	require.Equal(t, []string{"/dashboard/" + itoa(user.ID)}, pages.invalidated)

	require.NoError(t, svc.Update(ctx, user.Caller(), book.ID, 10, nil))
	got, err = repo.FindByUserAndResource(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.CurrentPage)
	require.Nil(t, got.TotalPages)
	require.Zero(t, got.PercentComplete)

	require.NoError(t, svc.Update(ctx, user.Caller(), book.ID, 250, util.IntPtr(200)))
	got, err = repo.FindByUserAndResource(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.InDelta(t, 100.0, got.PercentComplete, 0.0001)

	count, err := repo.CountByUserAndResource(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestProgressUpdateValidation(t *testing.T) {
	svc, _, pages, user, book := newProgressFixture(t)
	ctx := testutil.Ctx(t)

	err := svc.Update(ctx, user.Caller(), book.ID, -1, nil)
	require.ErrorIs(t, err, util.ErrInvalidPage)

	err = svc.Update(ctx, user.Caller(), book.ID, 1, util.IntPtr(0))
	require.ErrorIs(t, err, util.ErrInvalidTotalPages)

	err = svc.Update(ctx, user.Caller(), 0, 1, nil)
	require.ErrorIs(t, err, util.ErrInvalidResource)

	require.Empty(t, pages.invalidated)
}

func TestProgressUpdateNilCaller(t *testing.T) {
	svc, repo, pages, user, book := newProgressFixture(t)
	ctx := testutil.Ctx(t)

	require.NoError(t, svc.Update(ctx, nil, book.ID, -5, nil))

	count, err := repo.CountByUserAndResource(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Empty(t, pages.invalidated)
}

func TestProgressUpdateSwallowsStorageFailure(t *testing.T) {
	pages := &recordingPages{}
	svc := NewReadingProgressService(failingProgressStore{}, pages)

	err := svc.Update(context.Background(), &model.Caller{ID: 1}, 2, 3, util.IntPtr(10))
	require.NoError(t, err)
	require.Empty(t, pages.invalidated)
}

func TestProgressGet(t *testing.T) {
	svc, _, _, user, book := newProgressFixture(t)
	ctx := testutil.Ctx(t)

	got, err := svc.Get(ctx, user.Caller(), book.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, svc.Update(ctx, user.Caller(), book.ID, 12, nil))
	got, err = svc.Get(ctx, user.Caller(), book.ID)
	require.NoError(t, err)
	require.Equal(t, 12, got.CurrentPage)
	require.True(t, got.LastReadAt.Equal(testutil.Epoch))

	got, err = svc.Get(ctx, nil, book.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}
