package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/src/internal/adapters/memory"
	"github.com/cinescope/cinescope/src/internal/domain"
)

func newCollectionFixture(t *testing.T) (*CollectionService, *memory.InMemoryUserRepo, string) {
	t.Helper()
	repo := memory.NewUserRepo()
	user := &domain.User{ID: "u-1", ProviderID: "g-1", Email: "ann@example.com", Name: "Ann"}
	require.NoError(t, repo.Create(context.Background(), user))

	svc := NewCollectionService(repo)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc, repo, user.ID
}

func strPtr(s string) *string { return &s }

func fightClub() SaveRequest {
	return SaveRequest{
		MovieID:     550,
		Title:       "Fight Club",
		PosterPath:  strPtr("/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg"),
		ReleaseDate: strPtr("1999-10-15"),
		VoteAverage: 8.4,
		MediaType:   "movie",
	}
}

func TestNormalizeSaveCoercesNumbers(t *testing.T) {
	title, err := NormalizeSave(SaveRequest{MovieID: "550", Title: "Fight Club", VoteAverage: "8.4", MediaType: "movie"})
	require.NoError(t, err)
	assert.Equal(t, 550, title.MovieID)
	assert.Equal(t, 8.4, title.VoteAverage)
	assert.Equal(t, domain.MediaKindMovie, title.MediaType)

	title, err = NormalizeSave(SaveRequest{MovieID: float64(1399), Title: "GoT", VoteAverage: "n/a", MediaType: "tv"})
	require.NoError(t, err)
	assert.Equal(t, 1399, title.MovieID)
	assert.Zero(t, title.VoteAverage)
	assert.Nil(t, title.PosterPath)
}

func TestNormalizeSaveZeroesNonFiniteRatings(t *testing.T) {
	for _, v := range []any{"NaN", "Inf", "-Infinity", math.Inf(1)} {
		title, err := NormalizeSave(SaveRequest{MovieID: 550, Title: "Fight Club", VoteAverage: v, MediaType: "movie"})
		require.NoError(t, err)
		assert.Zero(t, title.VoteAverage, "vote_average %v", v)
	}
}

func TestAddNonFiniteRatingStaysListable(t *testing.T) {
	svc, _, userID := newCollectionFixture(t)
	req := fightClub()
	req.VoteAverage = "NaN"
	_, err := svc.Add(context.Background(), userID, req)
	require.NoError(t, err)

	titles, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	_, err = json.Marshal(titles)
	assert.NoError(t, err)
}

func TestNormalizeSaveParsesDecimalIDs(t *testing.T) {
	title, err := NormalizeSave(SaveRequest{MovieID: "010", Title: "x", MediaType: "movie"})
	require.NoError(t, err)
	assert.Equal(t, 10, title.MovieID)

	_, err = NormalizeSave(SaveRequest{MovieID: "0x1F", Title: "x", MediaType: "movie"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"movieId"}, verr.Missing)
}

func TestNormalizeSaveReportsMissingFields(t *testing.T) {
	_, err := NormalizeSave(SaveRequest{Title: "  "})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"movieId", "title", "media_type"}, verr.Missing)
	assert.Equal(t, "Missing required fields: movieId, title, media_type", verr.Error())
}

func TestNormalizeSaveRejectsUnknownMediaType(t *testing.T) {
	_, err := NormalizeSave(SaveRequest{MovieID: 1, Title: "x", MediaType: "book"})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, verr.Missing)
	assert.Equal(t, []string{"media_type"}, verr.Invalid)
}

func TestNormalizeSaveRejectsNegativeID(t *testing.T) {
	_, err := NormalizeSave(SaveRequest{MovieID: -3, Title: "x", MediaType: "movie"})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"movieId"}, verr.Invalid)
}

func TestAddListRemoveFightClub(t *testing.T) {
	svc, _, userID := newCollectionFixture(t)
	ctx := context.Background()

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	saved, err := svc.Add(ctx, userID, fightClub())
	require.NoError(t, err)
	assert.Equal(t, 550, saved.MovieID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), saved.SavedAt)

	list, err = svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Fight Club", list[0].Title)

	_, err = svc.Add(ctx, userID, fightClub())
	assert.ErrorIs(t, err, domain.ErrAlreadySaved)

	require.NoError(t, svc.Remove(ctx, userID, 550))
	list, err = svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.Remove(ctx, userID, 550), domain.ErrNotFound)
}

func TestAddPreservesAppendOrder(t *testing.T) {
	svc, _, userID := newCollectionFixture(t)
	ctx := context.Background()

	for _, id := range []int{3, 1, 2} {
		_, err := svc.Add(ctx, userID, SaveRequest{MovieID: id, Title: "t", MediaType: "movie"})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Remove(ctx, userID, 1))

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].MovieID)
	assert.Equal(t, 2, list[1].MovieID)
}

func TestRemoveValidatesID(t *testing.T) {
	svc, _, userID := newCollectionFixture(t)

	var verr *domain.ValidationError
	assert.True(t, errors.As(svc.Remove(context.Background(), userID, 0), &verr))
}

func TestToggleIsAnInvolution(t *testing.T) {
	svc, _, userID := newCollectionFixture(t)
	ctx := context.Background()

	first, err := svc.Toggle(ctx, userID, fightClub())
	require.NoError(t, err)
	assert.Equal(t, ActionAdded, first.Action)
	require.NotNil(t, first.Title)
	assert.Equal(t, 550, first.Title.MovieID)

	second, err := svc.Toggle(ctx, userID, fightClub())
	require.NoError(t, err)
	assert.Equal(t, ActionRemoved, second.Action)
	assert.Nil(t, second.Title)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list)

	third, err := svc.Toggle(ctx, userID, fightClub())
	require.NoError(t, err)
	assert.Equal(t, ActionAdded, third.Action)
}

func TestToggleValidatesBeforeTouchingStore(t *testing.T) {
	svc, _, userID := newCollectionFixture(t)

	_, err := svc.Toggle(context.Background(), userID, SaveRequest{MovieID: 550})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"title", "media_type"}, verr.Missing)
}

func TestCollectionIsPerUser(t *testing.T) {
	svc, repo, userID := newCollectionFixture(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u-2", ProviderID: "g-2", Email: "bob@example.com"}))

	_, err := svc.Add(ctx, userID, fightClub())
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u-2", fightClub())
	require.NoError(t, err, "the same movieId may be saved by another user")

	require.NoError(t, svc.Remove(ctx, "u-2", 550))
	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUnknownUser(t *testing.T) {
	svc, _, _ := newCollectionFixture(t)

	_, err := svc.List(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.Add(context.Background(), "ghost", fightClub())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
