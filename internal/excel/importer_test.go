package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/pkg/models"
)

func newImporter(t *testing.T) (*Importer, *database.FlashcardRepository, int64) {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := database.NewUserRepository(db)
	user := &models.User{Username: "importer"}
	require.NoError(t, users.Create(context.Background(), user))

	flashcards := database.NewFlashcardRepository(db)
	return NewImporter(flashcards), flashcards, user.ID
}

func TestImportFlashcardsFromCSV(t *testing.T) {
	imp, flashcards, userID := newImporter(t)

	path := filepath.Join(t.TempDir(), "cards.csv")
	content := "front,back\nO que é habeas corpus?,Remédio constitucional\n,\nPrazo do mandado de segurança?,120 dias\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultImportConfig()
	config.FilePath = path

	result, err := imp.ImportFlashcards(context.Background(), userID, config)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)

	cards, err := flashcards.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, models.MasteryNew, cards[0].MasteryLevel)
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 1, columnToIndex("b"))
	assert.Equal(t, 25, columnToIndex("Z"))
	assert.Equal(t, 26, columnToIndex("AA"))
	assert.Equal(t, -1, columnToIndex("4"))
}
