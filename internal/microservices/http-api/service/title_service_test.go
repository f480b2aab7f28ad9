package service

import (
	"context"
	"testing"
	"time"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, env.cats.Create(ctx, &models.Category{Name: "Films", Slug: "films"}))
	require.NoError(t, env.cats.Create(ctx, &models.Category{Name: "Books", Slug: "books"}))
	require.NoError(t, env.genres.Create(ctx, &models.Genre{Name: "Drama", Slug: "drama"}))
	require.NoError(t, env.genres.Create(ctx, &models.Genre{Name: "Sci-Fi", Slug: "sci-fi"}))
}

func TestTitleService_CreateAndFilter(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env)
	svc := NewTitleService(env.titles, env.cats, env.genres)
	ctx := context.Background()

	solaris, err := svc.Create(ctx, dto.CreateTitleRequest{
		Name:     "Solaris",
		Year:     intPtr(1972),
		Category: "films",
		Genre:    []string{"sci-fi", "drama", "sci-fi"},
	})
	require.NoError(t, err)
	require.NotNil(t, solaris.Category)
	assert.Equal(t, "films", solaris.Category.Slug)
	assert.Len(t, solaris.Genre, 2)
	assert.Nil(t, solaris.Rating)

	_, err = svc.Create(ctx, dto.CreateTitleRequest{
		Name:     "Roadside Picnic",
		Year:     intPtr(1972),
		Category: "books",
		Genre:    []string{"sci-fi"},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		query dto.TitleQuery
		want  int
	}{
		{"all", dto.TitleQuery{}, 2},
		{"by category", dto.TitleQuery{Category: "films"}, 1},
		{"by genre", dto.TitleQuery{Genre: "sci-fi"}, 2},
		{"by genre drama", dto.TitleQuery{Genre: "drama"}, 1},
		{"by name", dto.TitleQuery{Name: "pic"}, 1},
		{"by year", dto.TitleQuery{Year: intPtr(1972)}, 2},
		{"no match", dto.TitleQuery{Year: intPtr(1999)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, tt.query)
			require.NoError(t, err)
			assert.EqualValues(t, tt.want, page.Total)
			assert.Len(t, page.Data, tt.want)
		})
	}
}

func TestTitleService_Validation(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env)
	svc := NewTitleService(env.titles, env.cats, env.genres)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateTitleRequest{Name: "X", Year: intPtr(time.Now().Year() + 1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, dto.CreateTitleRequest{Name: "X", Year: intPtr(2000), Category: "nope"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, dto.CreateTitleRequest{Name: "X", Year: intPtr(2000), Genre: []string{"drama", "nope"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTitleService_UpdateGenres(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env)
	svc := NewTitleService(env.titles, env.cats, env.genres)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateTitleRequest{Name: "Solaris", Year: intPtr(1972), Genre: []string{"drama"}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, dto.UpdateTitleRequest{Name: strPtr("Solyaris")})
	require.NoError(t, err)
	assert.Equal(t, "Solyaris", updated.Name)
	assert.Len(t, updated.Genre, 1)

	updated, err = svc.Update(ctx, created.ID, dto.UpdateTitleRequest{Genre: []string{"sci-fi", "drama"}, Category: strPtr("films")})
	require.NoError(t, err)
	assert.Len(t, updated.Genre, 2)
	assert.Equal(t, "films", updated.Category.Slug)

	updated, err = svc.Update(ctx, created.ID, dto.UpdateTitleRequest{Genre: []string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Genre)

	updated, err = svc.Update(ctx, created.ID, dto.UpdateTitleRequest{Category: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Category)
	assert.Equal(t, "Solyaris", updated.Name)

	_, err = svc.Update(ctx, created.ID, dto.UpdateTitleRequest{Category: strPtr("nope")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, 999, dto.UpdateTitleRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_DeleteKeepsTitles(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env)
	titles := NewTitleService(env.titles, env.cats, env.genres)
	cats := NewCategoryService(env.cats)
	genres := NewGenreService(env.genres)
	ctx := context.Background()

	created, err := titles.Create(ctx, dto.CreateTitleRequest{Name: "Solaris", Year: intPtr(1972), Category: "films", Genre: []string{"drama"}})
	require.NoError(t, err)

	require.NoError(t, cats.Delete(ctx, "films"))
	require.NoError(t, genres.Delete(ctx, "drama"))

	got, err := titles.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)
	assert.Empty(t, got.Genre)

	assert.ErrorIs(t, cats.Delete(ctx, "films"), ErrNotFound)
}

func TestCatalog_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	cats := NewCategoryService(env.cats)
	ctx := context.Background()

	_, err := cats.Create(ctx, dto.CategoryRequest{Name: "Films", Slug: "films"})
	require.NoError(t, err)
	_, err = cats.Create(ctx, dto.CategoryRequest{Name: "Movies", Slug: "films"})
	assert.ErrorIs(t, err, ErrValidation)

	page, err := cats.List(ctx, "fil", repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}
