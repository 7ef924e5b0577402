package filters

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

type Filters struct {
	Page     int `schema:"page" json:"page" validate:"gte=1,lte=10000000"`
	PageSize int `schema:"page_size" json:"page_size" validate:"gte=1,lte=100"`
}

func New(page, pageSize int) Filters {
	return Filters{Page: page, PageSize: pageSize}
}

func (f Filters) Limit() int {
	return f.PageSize
}

func (f Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records"`
}

func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}

// TitleFilters narrows a title listing. Zero values mean "no constraint".
type TitleFilters struct {
	Name     string   `schema:"name" json:"name,omitempty" validate:"max=200"`
	Year     *int32   `schema:"year" json:"year,omitempty"`
	Category string   `schema:"category" json:"category,omitempty" validate:"omitempty,slug"`
	Genres   []string `schema:"-" json:"genre,omitempty" validate:"dive,slug"`
}

// ParseSlugList splits a comma-separated query value into distinct non-empty slugs.
func ParseSlugList(values []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// Key renders a stable representation of the filters, used to build cache keys.
func (t TitleFilters) Key() string {
	var b strings.Builder
	b.WriteString("name=")
	b.WriteString(strings.ToLower(strings.TrimSpace(t.Name)))
	b.WriteString("&year=")
	if t.Year != nil {
		b.WriteString(strconv.Itoa(int(*t.Year)))
	}
	b.WriteString("&category=")
	b.WriteString(t.Category)
	b.WriteString("&genre=")
	genres := append([]string(nil), t.Genres...)
	slices.Sort(genres)
	b.WriteString(strings.Join(genres, ","))
	return b.String()
}
