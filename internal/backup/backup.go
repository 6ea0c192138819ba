// Package backup writes and reads the full-state export document.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/quest-tracker/internal/model"
)

// ErrMalformed is returned for documents that cannot be imported. Nothing
// is changed when it is returned.
var ErrMalformed = errors.New("malformed backup")

// Source provides the state that goes into an export.
type Source interface {
	Single() []model.SingleQuest
	MaxPhotos() int
}

// Target receives an imported state.
type Target interface {
	ReplaceSingle(ctx context.Context, quests []model.SingleQuest, maxPhotos *int)
}

// FileName returns the conventional export file name for t's date.
func FileName(t time.Time) string {
	return "done-backup-" + model.DateKey(t) + ".json"
}

// Export snapshots the single quest collection and settings.
func Export(src Source, now time.Time) model.ExportDocument {
	maxPhotos := src.MaxPhotos()
	quests := src.Single()
	if quests == nil {
		quests = []model.SingleQuest{}
	}
	return model.ExportDocument{
		Version:    model.ExportVersion,
		ExportDate: now.UTC(),
		Settings:   model.ExportSettings{MaxImages: &maxPhotos},
		Quests:     quests,
	}
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc model.ExportDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

type rawDocument struct {
	Version    string                     `json:"version"`
	ExportDate time.Time                  `json:"exportDate"`
	Settings   map[string]json.RawMessage `json:"settings"`
	Quests     json.RawMessage            `json:"quests"`
}

// Read decodes and checks a backup document. The quests field must be a
// list; maxImages may be a number or a numeric string and must be in the
// accepted photo range.
func Read(r io.Reader) (model.ExportDocument, error) {
	var raw rawDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return model.ExportDocument{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	quests := bytes.TrimSpace(raw.Quests)
	if len(quests) == 0 || quests[0] != '[' {
		return model.ExportDocument{}, fmt.Errorf("%w: quests must be a list", ErrMalformed)
	}

	doc := model.ExportDocument{
		Version:    raw.Version,
		ExportDate: raw.ExportDate,
	}
	if err := json.Unmarshal(quests, &doc.Quests); err != nil {
		return model.ExportDocument{}, fmt.Errorf("%w: reading quests: %v", ErrMalformed, err)
	}

	if v, ok := raw.Settings["maxImages"]; ok {
		n, err := parseMaxImages(v)
		if err != nil {
			return model.ExportDocument{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		doc.Settings.MaxImages = n
	}

	return doc, nil
}

func parseMaxImages(v json.RawMessage) (*int, error) {
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		var s string
		if json.Unmarshal(v, &s) != nil {
			return nil, fmt.Errorf("maxImages must be a number")
		}
		if s = strings.TrimSpace(s); s == "" {
			return nil, nil
		}
		if n, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("maxImages must be a number")
		}
	}
	if err := model.ValidateMaxPhotos(n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Apply replaces the target's single quests, and its photo limit when
// the document carries one.
func Apply(ctx context.Context, target Target, doc model.ExportDocument) {
	target.ReplaceSingle(ctx, doc.Quests, doc.Settings.MaxImages)
}
