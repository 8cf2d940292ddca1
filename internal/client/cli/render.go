package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
)

const reviewDateLayout = "Jan 2, 2006"

// starBar renders rating (0..5) rounded to whole stars.
func starBar(rating float64) string {
	n := int(math.Round(rating))
	n = max(0, min(5, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func ratingSummary(b models.Book, reviewCount int) string {
	if b.RatingNumber == 0 && b.Rating == 0 {
		return fmt.Sprintf("%s no ratings yet · %d reviews", starBar(0), reviewCount)
	}
	return fmt.Sprintf("%s %.1f (%d ratings) · %d reviews", starBar(b.Rating), b.Rating, b.RatingNumber, reviewCount)
}

func renderBooks(w io.Writer, books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tPRICE\tRATING")
	for _, b := range books {
		rating := "-"
		if b.Rating > 0 {
			rating = fmt.Sprintf("%.1f", b.Rating)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\n", b.ID, b.Title, b.Author, b.Genre, b.Price, rating)
	}
	_ = tw.Flush()
}

func renderBook(w io.Writer, b models.Book, reviews []models.Review, currentUserID string) {
	fmt.Fprintf(w, "%s\nby %s · %s · $%.2f\n", b.Title, b.Author, b.Genre, b.Price)
	fmt.Fprintln(w, ratingSummary(b, len(reviews)))
	if b.CoverImage != "" && !strings.HasPrefix(b.CoverImage, "data:") {
		fmt.Fprintf(w, "Cover: %s\n", b.CoverImage)
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", b.Description)
	}
	fmt.Fprintln(w)
	renderReviews(w, reviews, currentUserID)
}

func renderReviews(w io.Writer, reviews []models.Review, currentUserID string) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "No reviews yet.")
		return
	}

	fmt.Fprintf(w, "Reviews (%d)\n", len(reviews))
	for _, rv := range reviews {
		date := ""
		if !rv.CreatedAt.IsZero() {
			date = " · " + rv.CreatedAt.Local().Format(reviewDateLayout)
		}
		fmt.Fprintf(w, "[%s] %s%s\n", rv.ID, rv.AuthorName(), date)
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(rv.Content, "\n", "\n  "))

		like, dislike := "", ""
		if rv.LikedBy(currentUserID) {
			like = " (you)"
		}
		if rv.DislikedBy(currentUserID) {
			dislike = " (you)"
		}
		fmt.Fprintf(w, "  👍 %d%s  👎 %d%s\n", len(rv.Likes), like, len(rv.Dislikes), dislike)
	}
}

func renderList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "No %s.\n", strings.ToLower(title))
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
