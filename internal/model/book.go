package model

// Book is a catalog record. As a favorite it also carries the store-assigned
// ID; search results leave ID empty.
type Book struct {
	ID          string   `json:"id,omitempty"`
	GoogleID    string   `json:"googleId"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	PageCount   int      `json:"pageCount"`
	Categories  []string `json:"categories"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Description string   `json:"description"`
	PreviewLink string   `json:"previewLink"`
}
