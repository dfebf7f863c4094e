package recipe

import (
	"bytes"
	"fmt"
	"strings"

	"foodgram/domain"
	"foodgram/entities"

	"github.com/phpdave11/gofpdf"
)

const (
	shoppingListTitle     = "Shopping list"
	shoppingListSeparator = "----------------------------------------"
	shoppingListFileName  = "shopping_list"
	shoppingListFont      = "shoppinglist"
)

func shoppingListLines(recipes []*entities.Recipe, items []entities.ShoppingListItem) []string {
	lines := make([]string, 0, len(recipes)+len(items)+6)
	lines = append(lines, shoppingListTitle, "", "Recipes:")
	for _, r := range recipes {
		lines = append(lines, r.Name)
	}
	lines = append(lines, shoppingListSeparator, "To buy:")
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (%s) - %d", item.Name, item.MeasurementUnit, item.Total))
	}
	return lines
}

func RenderShoppingListText(recipes []*entities.Recipe, items []entities.ShoppingListItem) []byte {
	return []byte(strings.Join(shoppingListLines(recipes, items), "\n") + "\n")
}

// RenderShoppingListPDF draws the list with font, the bytes of a UTF-8
// TrueType font. Without one it falls back to Helvetica, which only covers
// cp1252.
func RenderShoppingListPDF(recipes []*entities.Recipe, items []entities.ShoppingListItem, font []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family, tr := "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if len(font) > 0 {
		pdf.AddUTF8FontFromBytes(shoppingListFont, "", font)
		pdf.AddUTF8FontFromBytes(shoppingListFont, "B", font)
		family, tr = shoppingListFont, func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load shopping list font: %w", err)
	}
	pdf.SetTitle(shoppingListTitle, true)
	pdf.AddPage()

	for i, line := range shoppingListLines(recipes, items) {
		if i == 0 {
			pdf.SetFont(family, "B", 16)
		} else {
			pdf.SetFont(family, "", 12)
		}
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render shopping list pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// renderShoppingList returns the file for format; "" means text.
func renderShoppingList(format string, recipes []*entities.Recipe, items []entities.ShoppingListItem, font []byte) (domain.ShoppingListFile, error) {
	switch strings.ToLower(format) {
	case "", domain.ShoppingListFormatText:
		return domain.ShoppingListFile{
			FileName:    shoppingListFileName + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Body:        RenderShoppingListText(recipes, items),
		}, nil
	case domain.ShoppingListFormatPDF:
		body, err := RenderShoppingListPDF(recipes, items, font)
		if err != nil {
			return domain.ShoppingListFile{}, err
		}
		return domain.ShoppingListFile{
			FileName:    shoppingListFileName + ".pdf",
			ContentType: "application/pdf",
			Body:        body,
		}, nil
	default:
		return domain.ShoppingListFile{}, domain.ErrUnsupportedFormat
	}
}
