package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var sheetTemplate = template.Must(template.New("study_sheet.html").
	Funcs(template.FuncMap{"keyEntry": keyEntry}).
	ParseFS(templateFS, "templates/study_sheet.html"))

// keyEntry formats an answer key line. When the answer is one of the
// choices it is prefixed with the choice letter, e.g. "B. Rome".
func keyEntry(item SheetItem) string {
	for i, choice := range item.Choices {
		if choice == item.Answer && i < 26 {
			return fmt.Sprintf("%c. %s", 'A'+i, choice)
		}
	}
	return item.Answer
}

// RenderSheetHTML renders a sheet. User text is escaped by html/template.
func RenderSheetHTML(sheet Sheet) (string, error) {
	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, sheet); err != nil {
		return "", fmt.Errorf("render sheet: %w", err)
	}
	return buf.String(), nil
}
