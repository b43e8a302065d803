package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/booker/internal/model"
)

// UserDocument is a user record as a store holds it: one document per user
// with the favorites embedded.
type UserDocument struct {
	DocID         string
	Username      string
	Password      string
	FavoriteBooks []BookDocument
	CreatedAt     time.Time
}

// BookDocument is one embedded favorite. Authors and Categories are kept as
// JSON arrays so SQL backends can store them in a single column.
type BookDocument struct {
	DocID       string
	GoogleID    string
	Title       string
	Authors     string
	PageCount   int
	Categories  string
	Thumbnail   string
	Description string
	PreviewLink string
	AddedAt     time.Time
}

// NewBookDocument builds the stored form of book under the given id.
func NewBookDocument(id string, book model.Book, addedAt time.Time) (BookDocument, error) {
	authors, err := encodeList(book.Authors)
	if err != nil {
		return BookDocument{}, fmt.Errorf("encoding authors: %w", err)
	}
	categories, err := encodeList(book.Categories)
	if err != nil {
		return BookDocument{}, fmt.Errorf("encoding categories: %w", err)
	}
	return BookDocument{
		DocID:       id,
		GoogleID:    book.GoogleID,
		Title:       book.Title,
		Authors:     authors,
		PageCount:   book.PageCount,
		Categories:  categories,
		Thumbnail:   book.Thumbnail,
		Description: book.Description,
		PreviewLink: book.PreviewLink,
		AddedAt:     addedAt,
	}, nil
}

// NormalizeBook converts a stored favorite to its public shape: the store id
// becomes Book.ID and list columns become slices (never nil).
func NormalizeBook(doc BookDocument) (model.Book, error) {
	authors, err := decodeList(doc.Authors)
	if err != nil {
		return model.Book{}, fmt.Errorf("decoding authors of %s: %w", doc.DocID, err)
	}
	categories, err := decodeList(doc.Categories)
	if err != nil {
		return model.Book{}, fmt.Errorf("decoding categories of %s: %w", doc.DocID, err)
	}
	return model.Book{
		ID:          doc.DocID,
		GoogleID:    doc.GoogleID,
		Title:       doc.Title,
		Authors:     authors,
		PageCount:   doc.PageCount,
		Categories:  categories,
		Thumbnail:   doc.Thumbnail,
		Description: doc.Description,
		PreviewLink: doc.PreviewLink,
	}, nil
}

// NormalizeBooks applies NormalizeBook to each document, keeping order.
func NormalizeBooks(docs []BookDocument) ([]model.Book, error) {
	books := make([]model.Book, 0, len(docs))
	for _, doc := range docs {
		b, err := NormalizeBook(doc)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// NormalizeUser converts a stored user, favorites included.
func NormalizeUser(doc UserDocument) (*model.User, error) {
	books, err := NormalizeBooks(doc.FavoriteBooks)
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:            doc.DocID,
		Username:      doc.Username,
		PasswordHash:  doc.Password,
		FavoriteBooks: books,
		CreatedAt:     doc.CreatedAt,
	}, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	items := []string{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}
