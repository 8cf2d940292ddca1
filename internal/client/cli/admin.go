package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
)

var errCancelled = errors.New("cancelled by user")

// readBook prompts for every editable book field, offering the values of
// current as defaults.
func (a *App) readBook(current models.BookInput) (models.BookInput, error) {
	var in models.BookInput
	var err error

	if in.Title, err = GetDefaultText(a.reader, "Title", current.Title, a.out); err != nil {
		return in, err
	}
	if in.Author, err = GetDefaultText(a.reader, "Author", current.Author, a.out); err != nil {
		return in, err
	}
	if in.Genre, err = GetDefaultText(a.reader, "Genre", current.Genre, a.out); err != nil {
		return in, err
	}

	price := ""
	if current.Price != 0 || current.Title != "" {
		price = strconv.FormatFloat(current.Price, 'f', 2, 64)
	}
	price, err = GetDefaultText(a.reader, "Price", price, a.out)
	if err != nil {
		return in, err
	}
	if in.Price, err = strconv.ParseFloat(price, 64); err != nil {
		fmt.Fprintln(a.out, "Price must be a number.")
		return in, err
	}

	if in.CoverImage, err = GetDefaultText(a.reader, "Cover image URL", current.CoverImage, a.out); err != nil {
		return in, err
	}
	if in.Description, err = GetDefaultText(a.reader, "Description", current.Description, a.out); err != nil {
		return in, err
	}

	form := bookForm{
		Title:       in.Title,
		Author:      in.Author,
		Genre:       in.Genre,
		Price:       in.Price,
		CoverImage:  in.CoverImage,
		Description: in.Description,
	}
	if err := a.validate.Validate(form); err != nil {
		return in, a.invalid(err)
	}
	return in, nil
}

// AdminAdd creates a book from the entered fields.
func (a *App) AdminAdd(ctx context.Context) error {
	in, err := a.readBook(models.BookInput{})
	if err != nil {
		return err
	}
	return a.catalog.Create(ctx, in)
}

// AdminEdit loads the book, lets the admin change its fields and saves them.
// The list is reloaded after a successful update.
func (a *App) AdminEdit(ctx context.Context, id string) error {
	if err := a.catalog.FetchOne(ctx, id); err != nil {
		return err
	}
	b, ok := a.catalog.SelectedBook()
	if !ok || b.ID != id {
		return errNoBookSelected
	}

	in, err := a.readBook(b.Input())
	if err != nil {
		return err
	}
	if err := a.catalog.Update(ctx, in, id); err != nil {
		return err
	}
	return a.catalog.ListAll(ctx)
}

// AdminDelete removes a book after confirmation.
func (a *App) AdminDelete(ctx context.Context, id string) error {
	label := id
	if b, ok := a.catalog.Book(id); ok {
		label = fmt.Sprintf("%q (%s)", b.Title, id)
	}

	ok, err := Confirm(a.reader, "Delete "+label+"?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return errCancelled
	}
	return a.catalog.Remove(ctx, id)
}
