package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/foodagent/engine"
	"github.com/creastat/foodagent/extract"
	"github.com/creastat/foodagent/inventory"
	"github.com/creastat/foodagent/session"
)

// echoExtractor treats the user's last message as the assignment.
var echoExtractor = extract.Func(func(ctx context.Context, req extract.Request) (string, error) {
	switch req.Mode {
	case extract.ModeAssign:
		return req.Dialogue[len(req.Dialogue)-1].Content, nil
	case extract.ModeConfirm:
		return "YES", nil
	default:
		return "What else can you tell me?", nil
	}
})

func newTestEngine(t *testing.T) (*engine.Engine, *inventory.SQLiteStore) {
	t.Helper()
	inv, err := inventory.NewSQLiteStore(filepath.Join(t.TempDir(), "food.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = inv.Close() })

	store, err := session.NewStore(session.StoreTypeMemory)
	require.NoError(t, err)

	e, err := engine.New(store, echoExtractor, inv)
	require.NoError(t, err)
	return e, inv
}

func TestChatLoop_CompletesAndStores(t *testing.T) {
	e, inv := newTestEngine(t)
	in := strings.NewReader(strings.Join([]string{
		"name=apple",
		"/state",
		"food_type=fruit",
		"quantity=50 grams",
		"stock_date=today",
		"expiry_date=none",
		"storage_type=fridge",
		"never read",
	}, "\n"))
	var out bytes.Buffer

	err := chatLoop(context.Background(), e, "s1", map[string]string{"user": "u1"}, in, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"name": "apple"`)
	assert.Contains(t, out.String(), "All fields successfully collected.")

	records, err := inv.List(context.Background(), inventory.ListParams{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "apple", records[0].Name)
	assert.Equal(t, "cold", records[0].StorageType)
	assert.Equal(t, "50g", records[0].Quantity())
	assert.Equal(t, "u1", records[0].Caller["user"])
}

func TestChatLoop_CancelAndQuit(t *testing.T) {
	e, inv := newTestEngine(t)
	in := strings.NewReader("name=apple\n/cancel\n/quit\nname=pear\n")
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), e, "s1", nil, in, &out))
	assert.Contains(t, out.String(), "Cancelled.")

	st, err := e.Peek(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Empty(t, st.Fields)

	records, err := inv.List(context.Background(), inventory.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestChatLoop_EndOfInput(t *testing.T) {
	e, _ := newTestEngine(t)
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), e, "s1", nil, strings.NewReader(""), &out))
	assert.True(t, strings.HasPrefix(out.String(), "What else can you tell me?"))
}

func TestReadCatalogItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: Apple
  food_type: fruit
- name: Rice
  food_type: grains
`), 0o600))

	items, err := readCatalogItems(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Apple", items[0].Name)
	assert.Equal(t, "grains", items[1].FoodType)

	_, err = readCatalogItems(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
