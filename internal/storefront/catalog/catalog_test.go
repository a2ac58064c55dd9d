package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func Test_Seed(t *testing.T) {
	// when
	c := Seed()

	// then
	require.Equal(t, 8, c.Len())
	for i, p := range c.All() {
		assert.Equal(t, int64(i+1), p.ID)
		assert.GreaterOrEqual(t, p.Price, int64(0))
		assert.GreaterOrEqual(t, p.Stock, 0)
		assert.NotEmpty(t, p.Name)
	}
	headphones, ok := c.FindByID(1)
	require.True(t, ok)
	assert.Equal(t, int64(6799), headphones.Price)
	assert.Equal(t, "Electronics", headphones.Category)
}

func Test_Catalog_Filter(t *testing.T) {
	c := Seed()
	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "empty query returns everything", query: "", expected: names(c.All())},
		{name: "matches name ignoring case", query: "LAMP", expected: []string{"Desk Lamp"}},
		{name: "matches category", query: "sports", expected: []string{"Running Shoes", "Yoga Mat"}},
		{name: "matches name or category", query: "home", expected: []string{"Coffee Maker", "Desk Lamp"}},
		{name: "no match", query: "bicycle", expected: []string{}},
		{name: "whitespace is matched as typed", query: " ", expected: names(c.All())},
		{name: "leading space matches a second word", query: " lamp", expected: []string{"Desk Lamp"}},
		{name: "trailing space is not trimmed", query: "lamp ", expected: []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			got := c.Filter(tc.query)

			// then
			assert.Equal(t, tc.expected, names(got))
		})
	}
}

func Test_Catalog_FindByID(t *testing.T) {
	// given
	c := Seed()

	// when
	_, ok := c.FindByID(42)

	// then
	assert.False(t, ok)
}

func Test_Catalog_AllReturnsCopy(t *testing.T) {
	// given
	c := Seed()

	// when
	all := c.All()
	all[0].Name = "changed"

	// then
	first, _ := c.FindByID(1)
	assert.Equal(t, "Wireless Headphones", first.Name)
}
