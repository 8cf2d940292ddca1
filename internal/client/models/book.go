package models

// Book is a catalog entry. Rating is the server-computed average (0..5) and
// RatingNumber the number of ratings; both are zero for unrated books.
type Book struct {
	ID           string  `json:"_id,omitempty"`
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	Genre        string  `json:"genre"`
	Price        float64 `json:"price"`
	CoverImage   string  `json:"coverImage,omitempty"`
	Description  string  `json:"description,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	RatingNumber int     `json:"ratingNumber,omitempty"`
}

// BookInput holds the client-editable fields sent on create and update.
// CoverImage is either a URL or an embedded data URL.
type BookInput struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Genre       string  `json:"genre"`
	Price       float64 `json:"price"`
	CoverImage  string  `json:"coverImage,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Book converts submitted fields into an unsaved Book (no ID, no rating).
func (in BookInput) Book() Book {
	return Book{
		Title:       in.Title,
		Author:      in.Author,
		Genre:       in.Genre,
		Price:       in.Price,
		CoverImage:  in.CoverImage,
		Description: in.Description,
	}
}

// Input returns the editable part of b, used to prefill edit forms.
func (b Book) Input() BookInput {
	return BookInput{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Price:       b.Price,
		CoverImage:  b.CoverImage,
		Description: b.Description,
	}
}
