package storage

// TitleRecord is the writable part of a title, with references already resolved to ids.
type TitleRecord struct {
	Name       string
	Year       int32
	CategoryID *int64
	GenreIDs   []int64
}
