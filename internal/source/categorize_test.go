package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type titleCategorizer map[string]string

func (c titleCategorizer) Categorize(rec Record) (string, bool) {
	category, ok := c[rec.Title]
	return category, ok
}

func TestWithCategories(t *testing.T) {
	src := WithCategories(FromRecords(
		Record{Title: "Rent", Category: "Housing"},
		Record{Title: "Coffee"},
		Record{Title: "Mystery"},
	), titleCategorizer{"Coffee": "Food", "Rent": "Ignored"}, "Uncategorized")

	records := drain(t, src)
	require.Len(t, records, 3)
	assert.Equal(t, "Housing", records[0].Category, "explicit categories win")
	assert.Equal(t, "Food", records[1].Category)
	assert.Equal(t, "Uncategorized", records[2].Category)
}

func TestWithCategoriesWithoutCategorizer(t *testing.T) {
	records := drain(t, WithCategories(FromRecords(Record{Title: "Coffee"}), nil, ""))
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Category)
}

func TestWithCategoriesForwardsDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"title,type,value,category",
		"Coffee,outcome,3.50,",
	}, "\n")), 0o600))

	file, err := CSVFile(path)
	require.NoError(t, err)

	src := WithCategories(file, titleCategorizer{"Coffee": "Food"}, "")
	records := drain(t, src)
	require.Len(t, records, 1)
	assert.Equal(t, "Food", records[0].Category)

	require.NoError(t, src.Discard())
	assert.NoFileExists(t, path)

	assert.NoError(t, WithCategories(FromRecords(), nil, "").Discard())
}
