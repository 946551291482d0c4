package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "yaml", "parquet"}

// Row is the flattened form of an artwork written by every format
type Row struct {
	ID            int64  `json:"id" yaml:"id" parquet:"id"`
	Title         string `json:"title" yaml:"title" parquet:"title"`
	Artist        string `json:"artist" yaml:"artist" parquet:"artist"`
	Date          string `json:"date" yaml:"date" parquet:"date"`
	Medium        string `json:"medium" yaml:"medium" parquet:"medium"`
	PlaceOfOrigin string `json:"place_of_origin" yaml:"place_of_origin" parquet:"place_of_origin"`
	OnView        bool   `json:"on_view" yaml:"on_view" parquet:"on_view"`
	Gallery       string `json:"gallery" yaml:"gallery" parquet:"gallery"`
	ImageID       string `json:"image_id" yaml:"image_id" parquet:"image_id"`
	ThumbnailURL  string `json:"thumbnail_url" yaml:"thumbnail_url" parquet:"thumbnail_url"`
	ImageURL      string `json:"image_url" yaml:"image_url" parquet:"image_url"`
}

// NewRow flattens an artwork
func NewRow(a models.Artwork) Row {
	return Row{
		ID:            int64(a.ID),
		Title:         a.Label(),
		Artist:        a.Artist(),
		Date:          models.Deref(a.DateDisplay),
		Medium:        models.Deref(a.MediumDisplay),
		PlaceOfOrigin: models.Deref(a.PlaceOfOrigin),
		OnView:        a.IsOnView != nil && *a.IsOnView,
		Gallery:       models.Deref(a.GalleryTitle),
		ImageID:       models.Deref(a.ImageID),
		ThumbnailURL:  a.ThumbnailURL(),
		ImageURL:      a.FullImageURL(),
	}
}

// Write renders artworks to w in format
func Write(w io.Writer, format string, artworks []models.Artwork) error {
	rows := make([]Row, 0, len(artworks))
	for _, a := range artworks {
		rows = append(rows, NewRow(a))
	}

	switch format {
	case "text":
		return writeText(w, rows)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case "csv":
		return writeCSV(w, rows)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(rows)
	case "parquet":
		return writeParquet(w, rows)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeText(w io.Writer, rows []Row) error {
	for i, row := range rows {
		if _, err := fmt.Fprintf(w, "[%d] %s (id %d)\n", i+1, row.Title, row.ID); err != nil {
			return err
		}
		if row.Artist != "" {
			fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(row.Artist, "\n", " / "))
		}
		if row.Date != "" {
			fmt.Fprintf(w, "    %s\n", row.Date)
		}
		if row.ThumbnailURL != "" {
			fmt.Fprintf(w, "    %s\n", row.ThumbnailURL)
		}
	}
	return nil
}

func writeCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Title", "Artist", "Date", "Medium", "Place of Origin", "On View", "Gallery", "Image ID", "Thumbnail URL", "Image URL"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.ID, 10),
			row.Title,
			row.Artist,
			row.Date,
			row.Medium,
			row.PlaceOfOrigin,
			strconv.FormatBool(row.OnView),
			row.Gallery,
			row.ImageID,
			row.ThumbnailURL,
			row.ImageURL,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeParquet(w io.Writer, rows []Row) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
