package models

import (
	"time"
)

type Category struct {
	ID   int64  `json:"-" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

type Genre struct {
	ID   int64  `json:"-" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

type Title struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Year     int32     `json:"year"`
	Category *Category `json:"category"`
	Genres   []Genre   `json:"genre"`
	// Mean review score, nil when the title has no reviews. Never stored.
	Rating *float64 `json:"rating"`
}

type Review struct {
	ID       int64     `json:"id" db:"id"`
	TitleID  int64     `json:"-" db:"title_id"`
	AuthorID int64     `json:"-" db:"author_id"`
	Author   string    `json:"author" db:"author"`
	Text     string    `json:"text" db:"text"`
	Score    int16     `json:"score" db:"score"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
}

type Comment struct {
	ID       int64     `json:"id" db:"id"`
	ReviewID int64     `json:"-" db:"review_id"`
	AuthorID int64     `json:"-" db:"author_id"`
	Author   string    `json:"author" db:"author"`
	Text     string    `json:"text" db:"text"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
}
