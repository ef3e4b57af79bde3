package models

import "time"

type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      User      `json:"user"`
	Tags      []Tag     `json:"tags"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Page is one page of a post listing, with enough boundary information
// for pagination controls to never compute a page number themselves.
type Page struct {
	List            []Post `json:"list"`
	PageNum         int    `json:"pageNum"`
	PageSize        int    `json:"pageSize"`
	Total           int    `json:"total"`
	Pages           int    `json:"pages"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	HasNextPage     bool   `json:"hasNextPage"`
	PrePage         int    `json:"prePage"`
	NextPage        int    `json:"nextPage"`
}

// NewPage computes the boundary flags for the requested page number.
// PrePage and NextPage are 0 when there is no such page.
func NewPage(list []Post, total, pageNum, pageSize int) *Page {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	pages := (total + pageSize - 1) / pageSize

	p := &Page{
		List:     list,
		PageNum:  pageNum,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
	}
	if list == nil {
		p.List = []Post{}
	}

	p.HasPreviousPage = pageNum > 1 && pages > 0
	p.HasNextPage = pageNum < pages
	if p.HasPreviousPage {
		p.PrePage = pageNum - 1
	}
	if p.HasNextPage {
		p.NextPage = pageNum + 1
	}
	return p
}
