// Package material resolves exam material locators into plain text suitable
// for embedding in prompts. It is strictly best-effort: locators that cannot
// be fetched or parsed are skipped, never failing the batch.
package material

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

// MaxChars caps the combined material text embedded into prompts.
const MaxChars = 10000

const truncationMarker = "... (text truncated)"

// maxFetchBytes bounds how much of a remote document is read.
const maxFetchBytes = 20 << 20

// Enricher fetches reference materials and extracts their text.
type Enricher struct {
	client *http.Client
}

// New creates an Enricher with a bounded HTTP client.
func New() *Enricher {
	return &Enricher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enrich resolves the given locators into one concatenated text block capped
// at MaxChars. PDF locators are downloaded and their text extracted; other
// locators contribute a reference line. Failures are logged and skipped.
func (e *Enricher) Enrich(ctx context.Context, locators []string) string {
	if len(locators) == 0 {
		return ""
	}

	var parts []string
	for _, loc := range locators {
		if strings.HasSuffix(strings.ToLower(loc), ".pdf") {
			text, err := e.extractPDFURL(ctx, loc)
			if err != nil {
				slog.Warn("skipping material", "locator", loc, "error", err)
				continue
			}
			parts = append(parts, text)
		} else {
			parts = append(parts, "Reference material: "+loc)
		}
	}

	return capText(strings.Join(parts, "\n\n"))
}

func (e *Enricher) extractPDFURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if !isPDF(data) {
		return "", fmt.Errorf("missing %%PDF header")
	}
	return extractPDF(data)
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func capText(text string) string {
	if len(text) <= MaxChars {
		return text
	}
	// Back off to a rune boundary so the cap never splits a multi-byte
	// character from extracted PDF text.
	cut := MaxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationMarker
}
