package models_test

import (
	"math/rand"
	"testing"

	"yamdb/database/dbtest"
	"yamdb/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedTitle(t *testing.T, db *gorm.DB) *models.Title {
	t.Helper()
	title := &models.Title{Name: "Solaris", Year: 1972}
	require.NoError(t, db.Create(title).Error)
	return title
}

func ratingOf(t *testing.T, db *gorm.DB, id int64) *int {
	t.Helper()
	var title models.Title
	require.NoError(t, db.First(&title, id).Error)
	return title.Rating
}

func TestRating_ExampleSequence(t *testing.T) {
	db := dbtest.New(t)
	title := seedTitle(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	assert.Nil(t, ratingOf(t, db, title.ID))

	first := &models.Review{Text: "great", Score: 8, AuthorID: alice.ID, TitleID: title.ID}
	require.NoError(t, db.Create(first).Error)
	require.NotNil(t, ratingOf(t, db, title.ID))
	assert.Equal(t, 8, *ratingOf(t, db, title.ID))

	second := &models.Review{Text: "meh", Score: 4, AuthorID: bob.ID, TitleID: title.ID}
	require.NoError(t, db.Create(second).Error)
	assert.Equal(t, 6, *ratingOf(t, db, title.ID))

	require.NoError(t, db.Delete(first).Error)
	assert.Equal(t, 4, *ratingOf(t, db, title.ID))

	require.NoError(t, db.Delete(second).Error)
	assert.Nil(t, ratingOf(t, db, title.ID))
}

func TestRating_TruncatesMean(t *testing.T) {
	db := dbtest.New(t)
	title := seedTitle(t, db)

	for i, score := range []int{10, 9, 9} {
		u := seedUser(t, db, string(rune('a'+i))+"user")
		require.NoError(t, db.Create(&models.Review{Text: "t", Score: score, AuthorID: u.ID, TitleID: title.ID}).Error)
	}
	// 28 / 3 = 9.33
	assert.Equal(t, 9, *ratingOf(t, db, title.ID))
}

func TestRating_FollowsUpdates(t *testing.T) {
	db := dbtest.New(t)
	title := seedTitle(t, db)
	alice := seedUser(t, db, "alice")

	review := &models.Review{Text: "ok", Score: 5, AuthorID: alice.ID, TitleID: title.ID}
	require.NoError(t, db.Create(review).Error)

	review.Score = 9
	require.NoError(t, db.Model(review).Select("score").Updates(review).Error)
	assert.Equal(t, 9, *ratingOf(t, db, title.ID))
}

// Any sequence of creates, updates and deletes leaves the stored rating equal
// to the truncated mean of the remaining scores.
func TestRating_MatchesMeanAfterRandomMutations(t *testing.T) {
	db := dbtest.New(t)
	title := seedTitle(t, db)
	rng := rand.New(rand.NewSource(42))

	users := make([]*models.User, 6)
	for i := range users {
		users[i] = seedUser(t, db, "user"+string(rune('a'+i)))
	}
	live := map[string]*models.Review{}

	for step := 0; step < 60; step++ {
		u := users[rng.Intn(len(users))]
		existing, ok := live[u.ID]
		switch {
		case !ok:
			r := &models.Review{Text: "t", Score: 1 + rng.Intn(10), AuthorID: u.ID, TitleID: title.ID}
			require.NoError(t, db.Create(r).Error)
			live[u.ID] = r
		case rng.Intn(2) == 0:
			existing.Score = 1 + rng.Intn(10)
			require.NoError(t, db.Model(existing).Select("score").Updates(existing).Error)
		default:
			require.NoError(t, db.Delete(existing).Error)
			delete(live, u.ID)
		}

		var sum, n int64
		for _, r := range live {
			sum += int64(r.Score)
			n++
		}
		want := models.MeanRating(sum, n)
		got := ratingOf(t, db, title.ID)
		if want == nil {
			assert.Nil(t, got, "step %d", step)
		} else if assert.NotNil(t, got, "step %d", step) {
			assert.Equal(t, *want, *got, "step %d", step)
		}
	}
}

func TestReview_OnePerAuthorAndTitle(t *testing.T) {
	db := dbtest.New(t)
	title := seedTitle(t, db)
	alice := seedUser(t, db, "alice")

	require.NoError(t, db.Create(&models.Review{Text: "a", Score: 7, AuthorID: alice.ID, TitleID: title.ID}).Error)
	err := db.Create(&models.Review{Text: "b", Score: 3, AuthorID: alice.ID, TitleID: title.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	// the failed insert rolled back with its recompute
	assert.Equal(t, 7, *ratingOf(t, db, title.ID))
}

func TestReview_DeleteWithoutTitleIDFails(t *testing.T) {
	db := dbtest.New(t)
	title := seedTitle(t, db)
	alice := seedUser(t, db, "alice")
	review := &models.Review{Text: "a", Score: 7, AuthorID: alice.ID, TitleID: title.ID}
	require.NoError(t, db.Create(review).Error)

	err := db.Delete(&models.Review{ID: review.ID}).Error
	assert.ErrorIs(t, err, models.ErrReviewNotLoaded)

	var count int64
	db.Model(&models.Review{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestTitleDelete_CascadesReviewsAndComments(t *testing.T) {
	db := dbtest.New(t)
	title := seedTitle(t, db)
	alice := seedUser(t, db, "alice")
	review := &models.Review{Text: "a", Score: 7, AuthorID: alice.ID, TitleID: title.ID}
	require.NoError(t, db.Create(review).Error)
	require.NoError(t, db.Create(&models.Comment{Text: "c", AuthorID: alice.ID, ReviewID: review.ID}).Error)

	require.NoError(t, db.Delete(&models.Title{ID: title.ID}).Error)

	var reviews, comments int64
	db.Model(&models.Review{}).Count(&reviews)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, reviews)
	assert.Zero(t, comments)
}

func TestCategoryDelete_NullsTitleCategory(t *testing.T) {
	db := dbtest.New(t)
	cat := &models.Category{Name: "Films", Slug: "films"}
	require.NoError(t, db.Create(cat).Error)
	title := &models.Title{Name: "Stalker", Year: 1979, CategoryID: &cat.ID}
	require.NoError(t, db.Create(title).Error)

	require.NoError(t, db.Delete(cat).Error)

	var reloaded models.Title
	require.NoError(t, db.First(&reloaded, title.ID).Error)
	assert.Nil(t, reloaded.CategoryID)
}

func TestMeanRating(t *testing.T) {
	assert.Nil(t, models.MeanRating(0, 0))
	assert.Equal(t, 6, *models.MeanRating(12, 2))
	assert.Equal(t, 3, *models.MeanRating(11, 3))
}
