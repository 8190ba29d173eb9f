package export

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// pandocArgs builds the command line for an HTML to DOCX conversion that
// writes to stdout. Sheet fields become document properties.
func pandocArgs(sheet Sheet) []string {
	args := []string{"-f", "html", "-t", "docx", "--standalone", "-o", "-",
		"--metadata", "title=" + sheet.Title,
	}
	if sheet.Author != "" {
		args = append(args, "--metadata", "author="+sheet.Author)
	}
	if sheet.Subtitle != "" {
		args = append(args, "--metadata", "subject="+sheet.Subtitle)
	}
	return args
}

func exportDOCX(ctx context.Context, html string, sheet Sheet) (*Result, error) {
	pandoc, err := exec.LookPath("pandoc")
	if err != nil {
		return nil, fmt.Errorf("%w: pandoc not installed", ErrDOCXDependencyMissing)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, pandoc, pandocArgs(sheet)...)
	cmd.Stdin = strings.NewReader(html)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pandoc: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("pandoc: %w", err)
	}

	return &Result{
		Data:     stdout.Bytes(),
		Filename: sheetFilename(sheet, "docx"),
		MimeType: docxMimeType,
	}, nil
}
