package catalog

import "github.com/sakif/booker/internal/model"

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title       string      `json:"title"`
	Authors     []string    `json:"authors"`
	PageCount   int         `json:"pageCount"`
	Categories  []string    `json:"categories"`
	Description string      `json:"description"`
	PreviewLink string      `json:"previewLink"`
	ImageLinks  *imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// books maps the items in provider order. The volume id becomes GoogleID;
// the thumbnail is lifted out of imageLinks.
func (r volumesResponse) books() []model.Book {
	out := make([]model.Book, 0, len(r.Items))
	for _, v := range r.Items {
		out = append(out, v.book())
	}
	return out
}

func (v volume) book() model.Book {
	info := v.VolumeInfo
	b := model.Book{
		GoogleID:    v.ID,
		Title:       info.Title,
		Authors:     info.Authors,
		PageCount:   info.PageCount,
		Categories:  info.Categories,
		Description: info.Description,
		PreviewLink: info.PreviewLink,
	}
	if b.Authors == nil {
		b.Authors = []string{}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	if info.ImageLinks != nil {
		b.Thumbnail = info.ImageLinks.Thumbnail
	}
	return b
}
