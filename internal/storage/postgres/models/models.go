package models

import (
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/storage/postgres"
)

type Models struct {
	User     *UserModel
	Category *TaxonomyModel[models.Category]
	Genre    *TaxonomyModel[models.Genre]
	Title    *TitleModel
	Review   *ReviewModel
	Comment  *CommentModel
}

func New(db *postgres.PostgresDB) *Models {
	return &Models{
		User:     &UserModel{db.Conn},
		Category: NewCategoryModel(db.Conn),
		Genre:    NewGenreModel(db.Conn),
		Title:    &TitleModel{db.Conn},
		Review:   &ReviewModel{db.Conn},
		Comment:  &CommentModel{db.Conn},
	}
}
