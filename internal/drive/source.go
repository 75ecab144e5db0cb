package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"drive-rag-chatbot/models"
)

const (
	mimeGoogleDoc    = "application/vnd.google-apps.document"
	mimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeGoogleSlides = "application/vnd.google-apps.presentation"
	mimePDF          = "application/pdf"
	mimePPTX         = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimePPT          = "application/vnd.ms-powerpoint"
	mimeXLSX         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePlainText    = "text/plain"
)

// listQuery matches every document type the extractors can handle.
const listQuery = "mimeType='" + mimeGoogleDoc + "' or " +
	"mimeType='" + mimeGoogleSheet + "' or " +
	"mimeType='" + mimeGoogleSlides + "' or " +
	"mimeType='" + mimePDF + "' or " +
	"mimeType='" + mimePPTX + "' or " +
	"mimeType='" + mimePPT + "' or " +
	"mimeType='" + mimePlainText + "'"

// Source lists and fetches the user's Drive documents through the Drive and
// Docs APIs using the caller's OAuth token. Read-only.
type Source struct {
	files *drive.Service
	docs  *docs.Service
}

// NewSource builds a source bound to one user's credentials.
func NewSource(ctx context.Context, ts oauth2.TokenSource) (*Source, error) {
	filesSvc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	docsSvc, err := docs.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}
	return &Source{files: filesSvc, docs: docsSvc}, nil
}

// List returns the selectable documents in the user's Drive.
func (s *Source) List(ctx context.Context) ([]models.DocumentInfo, error) {
	res, err := s.files.Files.List().
		Q(listQuery).
		PageSize(100).
		Fields("nextPageToken, files(id, name, mimeType)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	infos := make([]models.DocumentInfo, 0, len(res.Files))
	for _, f := range res.Files {
		infos = append(infos, models.DocumentInfo{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}
	return infos, nil
}

// Fetch downloads one document as a format-tagged raw payload. Google-native
// types are exported to an Office format first so a single extractor variant
// covers both the native and uploaded flavors.
func (s *Source) Fetch(ctx context.Context, id string) (models.RawDocument, error) {
	meta, err := s.files.Files.Get(id).Fields("mimeType, name").Context(ctx).Do()
	if err != nil {
		return models.RawDocument{}, fmt.Errorf("failed to get metadata for %s: %w", id, err)
	}

	raw := models.RawDocument{SourceID: id, Name: meta.Name}

	switch meta.MimeType {
	case mimeGoogleDoc:
		doc, err := s.docs.Documents.Get(id).Context(ctx).Do()
		if err != nil {
			return models.RawDocument{}, fmt.Errorf("failed to get document body for %s: %w", id, err)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return models.RawDocument{}, fmt.Errorf("failed to encode document body for %s: %w", id, err)
		}
		raw.Format = models.FormatGoogleDoc
		raw.Data = data

	case mimeGoogleSlides:
		data, err := s.export(ctx, id, mimePPTX)
		if err != nil {
			return models.RawDocument{}, err
		}
		raw.Format = models.FormatSlideDeck
		raw.Data = data

	case mimeGoogleSheet:
		data, err := s.export(ctx, id, mimeXLSX)
		if err != nil {
			return models.RawDocument{}, err
		}
		raw.Format = models.FormatSpreadsheet
		raw.Data = data

	case mimePDF:
		data, err := s.download(ctx, id)
		if err != nil {
			return models.RawDocument{}, err
		}
		raw.Format = models.FormatPDF
		raw.Data = data

	case mimePPTX, mimePPT:
		data, err := s.download(ctx, id)
		if err != nil {
			return models.RawDocument{}, err
		}
		raw.Format = models.FormatSlideDeck
		raw.Data = data

	case mimeXLSX:
		data, err := s.download(ctx, id)
		if err != nil {
			return models.RawDocument{}, err
		}
		raw.Format = models.FormatSpreadsheet
		raw.Data = data

	case mimePlainText:
		data, err := s.download(ctx, id)
		if err != nil {
			return models.RawDocument{}, err
		}
		raw.Format = models.FormatPlainText
		raw.Data = data

	default:
		return models.RawDocument{}, fmt.Errorf("unsupported document type %q for %s", meta.MimeType, meta.Name)
	}

	return raw, nil
}

func (s *Source) download(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.files.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", id, err)
	}
	return readBody(resp, id)
}

func (s *Source) export(ctx context.Context, id, mimeType string) ([]byte, error) {
	resp, err := s.files.Files.Export(id, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to export %s as %s: %w", id, mimeType, err)
	}
	return readBody(resp, id)
}

func readBody(resp *http.Response, id string) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content of %s: %w", id, err)
	}
	return data, nil
}
