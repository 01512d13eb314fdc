package service

import (
	"context"
	"errors"
	"library_portal_backend/internal/config"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/repository"
	"library_portal_backend/internal/testutil"
	"library_portal_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type catalogFixture struct {
	db      *gorm.DB
	svc     *RecommendationService
	student *model.User
	visitor *model.User
	byTitle map[string]*model.Resource
}

func hoursAfterEpoch(h int) time.Time {
	return testutil.Epoch.Add(time.Duration(h) * time.Hour)
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	db := testutil.DB(t)

	third := testutil.SeedCourse(t, db, "CS301", 3)
	fourth := testutil.SeedCourse(t, db, "CS401", 4)

	f := &catalogFixture{
		db:      db,
		student: testutil.SeedUser(t, db, "student@example.com", util.IntPtr(3)),
		visitor: testutil.SeedUser(t, db, "visitor@example.com", nil),
		byTitle: map[string]*model.Resource{},
	}
	seed := func(title string, h int, opts ...testutil.ResourceOption) {
		f.byTitle[title] = testutil.SeedResource(t, db, title, hoursAfterEpoch(h), opts...)
	}
	seed("in progress", 11, testutil.WithCourse(third.ID))
	seed("curriculum new", 10, testutil.WithCourse(third.ID))
	seed("curriculum rated", 9, testutil.WithCourse(third.ID), testutil.WithRating(5))
	seed("rated other course", 8, testutil.WithCourse(fourth.ID), testutil.WithRating(4.6))
	seed("rated at threshold", 7, testutil.WithRating(4.0))
	seed("low rated", 6, testutil.WithRating(3.0))
	seed("plain", 5)

	testutil.SeedProgress(t, db, f.student.ID, f.byTitle["in progress"].ID, 3, nil, hoursAfterEpoch(12))

	f.svc = NewRecommendationService(
		repository.NewResourceRepository(db),
		repository.NewReadingProgressRepository(db),
		config.PersonalizationConfig{MaxLimit: 10, RatingThreshold: 4.0},
	)
	return f
}

func (f *catalogFixture) ids(titles ...string) []uint {
	out := make([]uint, 0, len(titles))
	for _, title := range titles {
		out = append(out, f.byTitle[title].ID)
	}
	return out
}

func candidateIDs(candidates []model.RecommendationCandidate) []uint {
	out := make([]uint, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Resource.ID)
	}
	return out
}

func candidateReasons(candidates []model.RecommendationCandidate) []model.RecommendationReason {
	out := make([]model.RecommendationReason, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Reason)
	}
	return out
}

func TestSelectFillsFromStrategiesInOrder(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := testutil.Ctx(t)

	got, err := f.svc.Select(ctx, f.student.Caller(), 5)
	require.NoError(t, err)
	require.Equal(t,
		f.ids("curriculum new", "curriculum rated", "rated other course", "rated at threshold", "low rated"),
		candidateIDs(got),
	)
	require.Equal(t, []model.RecommendationReason{
		model.ReasonCurriculumMatch,
		model.ReasonCurriculumMatch,
		model.ReasonHighlyRated,
		model.ReasonHighlyRated,
		model.ReasonUnseen,
	}, candidateReasons(got))
}

func TestSelectRespectsLimit(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := testutil.Ctx(t)

	got, err := f.svc.Select(ctx, f.student.Caller(), 3)
	require.NoError(t, err)
	require.Equal(t, f.ids("curriculum new", "curriculum rated", "rated other course"), candidateIDs(got))
}

func TestSelectNeverReturnsInProgressOrDuplicates(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := testutil.Ctx(t)

	got, err := f.svc.Select(ctx, f.student.Caller(), 10)
	require.NoError(t, err)
	require.Len(t, got, 6)

	seen := map[uint]bool{}
	for _, c := range got {
		require.NotEqual(t, f.byTitle["in progress"].ID, c.Resource.ID)
		require.False(t, seen[c.Resource.ID], "duplicate resource %d", c.Resource.ID)
		seen[c.Resource.ID] = true
	}
}

func TestSelectWithoutSemesterSkipsCurriculum(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := testutil.Ctx(t)

	got, err := f.svc.Select(ctx, f.visitor.Caller(), 3)
	require.NoError(t, err)
	require.Equal(t, f.ids("curriculum rated", "rated other course", "rated at threshold"), candidateIDs(got))
	for _, c := range got {
		require.Equal(t, model.ReasonHighlyRated, c.Reason)
	}
}

func TestSelectRatingThresholdReload(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := testutil.Ctx(t)

	f.svc.SetRatingThreshold(4.5)
	got, err := f.svc.Select(ctx, f.visitor.Caller(), 3)
	require.NoError(t, err)
	require.Equal(t, f.ids("curriculum rated", "rated other course", "in progress"), candidateIDs(got))
	require.Equal(t, model.ReasonUnseen, got[2].Reason)
}

func TestSelectExtraExclusions(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := testutil.Ctx(t)

	got, err := f.svc.Select(ctx, f.student.Caller(), 2, f.byTitle["curriculum new"].ID)
	require.NoError(t, err)
	require.Equal(t, f.ids("curriculum rated", "rated other course"), candidateIDs(got))
}

func TestSelectInvalidLimit(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := testutil.Ctx(t)

	for _, limit := range []int{0, -1, 11} {
		_, err := f.svc.Select(ctx, f.student.Caller(), limit)
		require.ErrorIs(t, err, util.ErrInvalidLimit)
	}
}

func TestSelectNilCaller(t *testing.T) {
	f := newCatalogFixture(t)

	got, err := f.svc.Select(testutil.Ctx(t), nil, 3)
	require.NoError(t, err)
	require.Nil(t, got)
}

type staticStrategy struct {
	reason    model.RecommendationReason
	resources []model.Resource
	err       error
}

func (s *staticStrategy) Reason() model.RecommendationReason { return s.reason }

func (s *staticStrategy) Candidates(ctx context.Context, caller *model.Caller, exclude []uint, limit int) ([]model.Resource, error) {
	return s.resources, s.err
}

type staticProgress []uint

func (p staticProgress) ResourceIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	return p, nil
}

func resourcesWithIDs(ids ...uint) []model.Resource {
	out := make([]model.Resource, 0, len(ids))
	for _, id := range ids {
		r := model.Resource{Title: "r"}
		r.ID = id
		out = append(out, r)
	}
	return out
}

func TestSelectDeduplicatesAcrossStrategies(t *testing.T) {
	svc := &RecommendationService{
		Strategies: []RecommendationStrategy{
			&staticStrategy{reason: model.ReasonCurriculumMatch, resources: resourcesWithIDs(1, 2)},
			&staticStrategy{reason: model.ReasonHighlyRated, resources: resourcesWithIDs(2, 3, 4)},
			&staticStrategy{reason: model.ReasonUnseen, resources: resourcesWithIDs(4, 5, 6)},
		},
		Progress: staticProgress{3},
		MaxLimit: 10,
	}

	got, err := svc.Select(context.Background(), &model.Caller{ID: 1}, 4)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2, 4, 5}, candidateIDs(got))
	require.Equal(t, []model.RecommendationReason{
		model.ReasonCurriculumMatch,
		model.ReasonCurriculumMatch,
		model.ReasonHighlyRated,
		model.ReasonUnseen,
	}, candidateReasons(got))
}

func TestSelectPropagatesStorageErrors(t *testing.T) {
	boom := errors.New("catalog offline")
	svc := &RecommendationService{
		Strategies: []RecommendationStrategy{
			&staticStrategy{reason: model.ReasonCurriculumMatch, resources: resourcesWithIDs(1)},
			&staticStrategy{reason: model.ReasonHighlyRated, err: boom},
		},
		Progress: staticProgress{},
		MaxLimit: 10,
	}

	_, err := svc.Select(context.Background(), &model.Caller{ID: 1}, 3)
	require.ErrorIs(t, err, boom)
}
