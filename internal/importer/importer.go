// Package importer loads the YaMDb CSV fixtures into the database.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixture file names, in load order.
const (
	UsersFile      = "users.csv"
	CategoriesFile = "category.csv"
	GenresFile     = "genre.csv"
	TitlesFile     = "titles.csv"
	TitleGenreFile = "genre_title.csv"
	ReviewsFile    = "review.csv"
	CommentsFile   = "comments.csv"
)

// Report counts the rows written per table.
type Report struct {
	Users       int
	Categories  int
	Genres      int
	Titles      int
	TitleGenres int
	Reviews     int
	Comments    int
}

func (r Report) String() string {
	return fmt.Sprintf("users=%d categories=%d genres=%d titles=%d title_genres=%d reviews=%d comments=%d",
		r.Users, r.Categories, r.Genres, r.Titles, r.TitleGenres, r.Reviews, r.Comments)
}

type Importer struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Importer {
	return &Importer{db: db, now: time.Now}
}

// ImportDir reads the fixtures from dir.
func (im *Importer) ImportDir(ctx context.Context, dir string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return im.ImportFS(ctx, os.DirFS(dir))
}

// ImportFS loads every fixture present in fsys inside one transaction.
// Missing files are skipped. Ids in the files only link rows to each other;
// the database assigns its own. Reviews are created through gorm so title
// ratings are recomputed as they arrive.
func (im *Importer) ImportFS(ctx context.Context, fsys fs.FS) (*Report, error) {
	run := &importRun{
		now:        im.now(),
		users:      make(map[string]string),
		categories: make(map[string]int64),
		genres:     make(map[string]int64),
		titles:     make(map[string]int64),
		reviews:    make(map[string]int64),
	}

	steps := []struct {
		file string
		cols []string
		load func(tx *gorm.DB, records []record) error
	}{
		{UsersFile, []string{"id", "username", "email"}, run.loadUsers},
		{CategoriesFile, []string{"id", "name", "slug"}, run.loadCategories},
		{GenresFile, []string{"id", "name", "slug"}, run.loadGenres},
		{TitlesFile, []string{"id", "name", "year"}, run.loadTitles},
		{TitleGenreFile, []string{"title_id", "genre_id"}, run.loadTitleGenres},
		{ReviewsFile, []string{"id", "title_id", "text", "author", "score"}, run.loadReviews},
		{CommentsFile, []string{"id", "review_id", "text", "author"}, run.loadComments},
	}

	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, step := range steps {
			records, err := readCSV(fsys, step.file, step.cols...)
			if errors.Is(err, fs.ErrNotExist) {
				logging.Warn().Str("file", step.file).Msg("fixture not found, skipping")
				continue
			}
			if err != nil {
				return err
			}
			if err := step.load(tx, records); err != nil {
				return err
			}
			logging.Info().Str("file", step.file).Int("rows", len(records)).Msg("fixture loaded")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &run.report, nil
}

// importRun maps fixture ids to the ids the database assigned.
type importRun struct {
	now    time.Time
	report Report

	users      map[string]string
	categories map[string]int64
	genres     map[string]int64
	titles     map[string]int64
	reviews    map[string]int64
}

func (run *importRun) loadUsers(tx *gorm.DB, records []record) error {
	for _, rec := range records {
		user := models.User{
			Username:  rec.str("username"),
			Email:     rec.str("email"),
			FirstName: rec.str("first_name"),
			LastName:  rec.str("last_name"),
			Bio:       rec.optional("bio"),
			Role:      models.Role(rec.str("role")),
		}
		if user.Role == "" {
			user.Role = models.RoleUser
		}
		if err := tx.Create(&user).Error; err != nil {
			return rec.errorf("create user %q: %w", user.Username, err)
		}
		run.users[rec.str("id")] = user.ID
		run.report.Users++
	}
	return nil
}

func (run *importRun) loadCategories(tx *gorm.DB, records []record) error {
	for _, rec := range records {
		category := models.Category{Name: rec.str("name"), Slug: rec.str("slug")}
		if err := tx.Create(&category).Error; err != nil {
			return rec.errorf("create category %q: %w", category.Slug, err)
		}
		run.categories[rec.str("id")] = category.ID
		run.report.Categories++
	}
	return nil
}

func (run *importRun) loadGenres(tx *gorm.DB, records []record) error {
	for _, rec := range records {
		genre := models.Genre{Name: rec.str("name"), Slug: rec.str("slug")}
		if err := tx.Create(&genre).Error; err != nil {
			return rec.errorf("create genre %q: %w", genre.Slug, err)
		}
		run.genres[rec.str("id")] = genre.ID
		run.report.Genres++
	}
	return nil
}

func (run *importRun) loadTitles(tx *gorm.DB, records []record) error {
	for _, rec := range records {
		year, err := rec.int("year")
		if err != nil {
			return err
		}
		if err := models.ValidateYear(year, run.now); err != nil {
			return rec.errorf("%w", err)
		}
		title := models.Title{
			Name:        rec.str("name"),
			Year:        year,
			Description: rec.optional("description"),
		}
		if ref := rec.str("category"); ref != "" {
			id, ok := run.categories[ref]
			if !ok {
				return rec.errorf("unknown category %s", ref)
			}
			title.CategoryID = &id
		}
		if err := tx.Omit(clause.Associations).Create(&title).Error; err != nil {
			return rec.errorf("create title %q: %w", title.Name, err)
		}
		run.titles[rec.str("id")] = title.ID
		run.report.Titles++
	}
	return nil
}

func (run *importRun) loadTitleGenres(tx *gorm.DB, records []record) error {
	for _, rec := range records {
		titleID, ok := run.titles[rec.str("title_id")]
		if !ok {
			return rec.errorf("unknown title %s", rec.str("title_id"))
		}
		genreID, ok := run.genres[rec.str("genre_id")]
		if !ok {
			return rec.errorf("unknown genre %s", rec.str("genre_id"))
		}
		link := map[string]any{"title_id": titleID, "genre_id": genreID}
		if err := tx.Table("title_genres").Create(link).Error; err != nil {
			return rec.errorf("link title %d to genre %d: %w", titleID, genreID, err)
		}
		run.report.TitleGenres++
	}
	return nil
}

func (run *importRun) loadReviews(tx *gorm.DB, records []record) error {
	for _, rec := range records {
		titleID, ok := run.titles[rec.str("title_id")]
		if !ok {
			return rec.errorf("unknown title %s", rec.str("title_id"))
		}
		authorID, ok := run.users[rec.str("author")]
		if !ok {
			return rec.errorf("unknown author %s", rec.str("author"))
		}
		score, err := rec.int("score")
		if err != nil {
			return err
		}
		if !models.ValidScore(score) {
			return rec.errorf("score %d out of range [%d, %d]", score, models.MinScore, models.MaxScore)
		}
		pubDate, err := rec.time("pub_date")
		if err != nil {
			return err
		}
		review := models.Review{
			Text:     rec.str("text"),
			Score:    score,
			AuthorID: authorID,
			TitleID:  titleID,
			PubDate:  pubDate,
		}
		if err := tx.Omit(clause.Associations).Create(&review).Error; err != nil {
			return rec.errorf("create review: %w", err)
		}
		run.reviews[rec.str("id")] = review.ID
		run.report.Reviews++
	}
	return nil
}

func (run *importRun) loadComments(tx *gorm.DB, records []record) error {
	for _, rec := range records {
		reviewID, ok := run.reviews[rec.str("review_id")]
		if !ok {
			return rec.errorf("unknown review %s", rec.str("review_id"))
		}
		authorID, ok := run.users[rec.str("author")]
		if !ok {
			return rec.errorf("unknown author %s", rec.str("author"))
		}
		pubDate, err := rec.time("pub_date")
		if err != nil {
			return err
		}
		comment := models.Comment{
			Text:     rec.str("text"),
			AuthorID: authorID,
			ReviewID: reviewID,
			PubDate:  pubDate,
		}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return rec.errorf("create comment: %w", err)
		}
		run.report.Comments++
	}
	return nil
}
