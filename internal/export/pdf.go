package export

import (
	"context"
	"fmt"
	"html/template"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// percentEncodeForDataURL escapes everything outside the RFC 3986 unreserved
// set byte by byte. Spaces become %20; url.QueryEscape would emit '+'.
func percentEncodeForDataURL(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0F])
		}
	}
	return b.String()
}

// chromiumBinaries are tried in order; chromedp finds the one on PATH.
var chromiumBinaries = []string{"chromium-browser", "chromium", "google-chrome"}

func chromiumInstalled() bool {
	for _, name := range chromiumBinaries {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// pdfFooter prints the sheet kind and page numbers on every page. Chrome
// fills the pageNumber and totalPages spans.
func pdfFooter(sheet Sheet) string {
	label := template.HTMLEscapeString(strings.TrimSpace(sheet.Kind + " · " + sheet.Title))
	return `<div style="font-size:8px;width:100%;padding:0 0.6in;display:flex;justify-content:space-between;color:#666">` +
		`<span>` + label + `</span>` +
		`<span><span class="pageNumber"></span> / <span class="totalPages"></span></span></div>`
}

// exportPDF prints the rendered sheet to Letter paper with headless Chrome.
func exportPDF(parent context.Context, html string, sheet Sheet) (*Result, error) {
	if !chromiumInstalled() {
		return nil, fmt.Errorf("%w: chromium not installed", ErrPDFDependencyMissing)
	}

	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var pdfData []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("data:text/html;charset=utf-8,"+percentEncodeForDataURL(html)),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11.0).
				WithMarginTop(0.6).
				WithMarginBottom(0.8).
				WithMarginLeft(0.6).
				WithMarginRight(0.6).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate("<span></span>").
				WithFooterTemplate(pdfFooter(sheet)).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print study sheet: %w", err)
	}

	return &Result{
		Data:     pdfData,
		Filename: sheetFilename(sheet, "pdf"),
		MimeType: "application/pdf",
	}, nil
}

// sheetFilename prefixes the sanitized title with the sheet kind, e.g.
// "quiz-Capitals.pdf".
func sheetFilename(sheet Sheet, ext string) string {
	name := sanitizeFilename(sheet.Title)
	if strings.TrimSpace(sheet.Kind) != "" {
		name = sanitizeFilename(strings.ToLower(sheet.Kind)) + "-" + name
	}
	return name + "." + ext
}

// sanitizeFilename keeps ASCII letters, digits, '-' and '_', maps spaces to
// hyphens and caps the result at 50 bytes.
func sanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	result := b.String()
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "study-sheet"
	}
	return result
}
