package report

//go:generate templ generate

import (
	"context"
	"io"

	"github.com/JonMunkholm/ProductImport/internal/core"
)

// WriteHTML renders the summary as a standalone HTML page.
func WriteHTML(ctx context.Context, w io.Writer, s *core.Summary) error {
	return SummaryPage(s).Render(ctx, w)
}
