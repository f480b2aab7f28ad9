package models

import (
	"errors"
	"time"

	"yamdb/internal/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinScore = 1
	MaxScore = 10
)

// ReviewMutation tags the persistence event that triggered a rating recompute.
type ReviewMutation string

const (
	ReviewCreated ReviewMutation = "created"
	ReviewUpdated ReviewMutation = "updated"
	ReviewDeleted ReviewMutation = "deleted"
)

var ErrReviewNotLoaded = errors.New("review mutated without a title id; load the row before saving or deleting it")

type Review struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Score    int       `json:"score" gorm:"not null;check:score_range,score >= 1 AND score <= 10"`
	AuthorID string    `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_author_title"`
	TitleID  int64     `json:"-" gorm:"not null;uniqueIndex:idx_reviews_author_title;index"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime"`

	// Associations
	Author *User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Title  *Title `json:"-" gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE;"`
}

func (Review) TableName() string {
	return "reviews"
}

// The hooks run inside the transaction gorm opens for the write, so the
// title rating commits together with the review no matter who wrote it.

func (r *Review) AfterCreate(tx *gorm.DB) error {
	return RecomputeTitleRating(tx, r.TitleID, ReviewCreated)
}

func (r *Review) AfterUpdate(tx *gorm.DB) error {
	return RecomputeTitleRating(tx, r.TitleID, ReviewUpdated)
}

func (r *Review) AfterDelete(tx *gorm.DB) error {
	return RecomputeTitleRating(tx, r.TitleID, ReviewDeleted)
}

// RecomputeTitleRating stores the mean score of the title's reviews, or NULL
// when none remain.
func RecomputeTitleRating(tx *gorm.DB, titleID int64, kind ReviewMutation) error {
	if titleID == 0 {
		return ErrReviewNotLoaded
	}

	// serialize concurrent recomputes of one title on databases with row locks
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var title Title
	err := q.Select("id").First(&title, titleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// title is being deleted and its reviews go with it
		return nil
	}
	if err != nil {
		return err
	}

	var agg struct {
		Total int64
		Count int64
	}
	if err := tx.Model(&Review{}).
		Select("COALESCE(SUM(score), 0) AS total, COUNT(*) AS count").
		Where("title_id = ?", titleID).
		Scan(&agg).Error; err != nil {
		return err
	}

	var value any = gorm.Expr("NULL")
	if rating := MeanRating(agg.Total, agg.Count); rating != nil {
		value = *rating
	}
	if err := tx.Model(&Title{}).Where("id = ?", titleID).UpdateColumn("rating", value).Error; err != nil {
		return err
	}

	metrics.ReviewMutations.WithLabelValues(string(kind)).Inc()
	return nil
}

// MeanRating truncates the mean towards zero, as an integer column would.
func MeanRating(total, count int64) *int {
	if count == 0 {
		return nil
	}
	v := int(total / count)
	return &v
}

// ValidScore reports whether score is in [MinScore, MaxScore].
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
