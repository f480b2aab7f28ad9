package models

import (
	"errors"
	"time"
)

var ErrFutureYear = errors.New("year cannot be in the future")

type Title struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:256;not null;index"`
	Year        int       `json:"year" gorm:"not null;index"`
	Description *string   `json:"description" gorm:"type:text"`
	CategoryID  *int64    `json:"-" gorm:"index"`
	Rating      *int      `json:"rating" gorm:"check:rating_range,rating IS NULL OR (rating >= 1 AND rating <= 10)"`
	CreatedAt   time.Time `json:"-" gorm:"autoCreateTime"`

	// association
	Category *Category `json:"category" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Genres   []Genre   `json:"genre" gorm:"many2many:title_genres;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}

// ValidateYear rejects years after the current calendar year.
func ValidateYear(year int, now time.Time) error {
	if year > now.Year() {
		return ErrFutureYear
	}
	return nil
}
