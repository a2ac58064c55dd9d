package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FormatPrice(t *testing.T) {
	testCases := []struct {
		amount   int64
		expected string
	}{
		{amount: 0, expected: "₹0"},
		{amount: 250, expected: "₹250"},
		{amount: 6799, expected: "₹6,799"},
		{amount: 16999, expected: "₹16,999"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatPrice(tc.amount))
		})
	}
}
