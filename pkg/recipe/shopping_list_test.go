package recipe

import (
	"bytes"
	"context"
	"os"
	"testing"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/testinfra"
	"foodgram/internal/utils/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cyrillicList = struct {
	recipes []*entities.Recipe
	items   []entities.ShoppingListItem
}{
	recipes: []*entities.Recipe{{Name: "Борщ"}},
	items: []entities.ShoppingListItem{
		{Name: "свёкла", MeasurementUnit: "г", Total: 300},
		{Name: "капуста", MeasurementUnit: "г", Total: 200},
	},
}

// systemUTF8Font returns a TrueType font with Cyrillic glyphs, skipping the
// test when the machine has none installed.
func systemUTF8Font(t *testing.T) []byte {
	t.Helper()

	for _, path := range []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
	} {
		if font, err := os.ReadFile(path); err == nil {
			return font
		}
	}
	t.Skip("no UTF-8 TrueType font installed")
	return nil
}

func TestRenderShoppingListPDFWithUTF8Font(t *testing.T) {
	font := systemUTF8Font(t)

	body, err := RenderShoppingListPDF(cyrillicList.recipes, cyrillicList.items, font)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	assert.Contains(t, string(body), "/FontFile2")
	assert.NotContains(t, string(body), "/BaseFont /Helvetica")
}

func TestRenderShoppingListPDFWithoutFontUsesHelvetica(t *testing.T) {
	body, err := RenderShoppingListPDF(cyrillicList.recipes, cyrillicList.items, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	assert.Contains(t, string(body), "/BaseFont /Helvetica")
}

func TestDownloadShoppingCartPDFUsesConfiguredFont(t *testing.T) {
	font := systemUTF8Font(t)

	db := testinfra.NewTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)
	svc := NewRecipeService(NewRecipeRepository(db), store, WithPDFFont(font))

	author := testinfra.CreateUser(t, db, "author", false)
	beet := testinfra.CreateIngredient(t, db, "свёкла", "г")
	borscht := testinfra.CreateRecipe(t, db, author, "Борщ", nil, testinfra.Amount{Ingredient: beet, Amount: 300})

	ctx := context.Background()
	actor := domain.Actor{UserID: author.ID}
	_, err = svc.AddToShoppingCart(ctx, actor, borscht.ID)
	require.NoError(t, err)

	file, err := svc.DownloadShoppingCart(ctx, actor, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "shopping_list.pdf", file.FileName)
	assert.Contains(t, string(file.Body), "/FontFile2")
}

func TestRenderShoppingListText(t *testing.T) {
	body := RenderShoppingListText(cyrillicList.recipes, cyrillicList.items)
	assert.Contains(t, string(body), "свёкла (г) - 300\n")
}
