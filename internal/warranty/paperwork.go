package warranty

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/erazemk/garancija/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var paperwork = template.Must(template.New("").Funcs(template.FuncMap{
	"date": formatDate,
}).ParseFS(templateFS, "templates/*.txt"))

type paperworkData struct {
	Now      time.Time
	Warranty model.Warranty
	Transfer model.WarrantyTransfer
	ItemName string
}

// RenderAgreement renders the transfer agreement both parties sign.
func RenderAgreement(t model.WarrantyTransfer, w model.Warranty, itemName string, now time.Time) (string, error) {
	return render("agreement.txt", paperworkData{Now: now, Warranty: w, Transfer: t, ItemName: itemName})
}

// RenderProviderNotice renders the notification letter sent to the provider.
func RenderProviderNotice(t model.WarrantyTransfer, w model.Warranty, itemName string, now time.Time) (string, error) {
	return render("notice.txt", paperworkData{Now: now, Warranty: w, Transfer: t, ItemName: itemName})
}

func render(name string, data paperworkData) (string, error) {
	if data.ItemName == "" {
		data.ItemName = "N/A"
	}
	var buf bytes.Buffer
	if err := paperwork.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("January 2, 2006")
	case *time.Time:
		if t == nil {
			return "N/A"
		}
		return t.Format("January 2, 2006")
	}
	return fmt.Sprint(v)
}
