package reassignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalPrice(t *testing.T) {
	cases := []struct {
		name     string
		price    float64
		discount float64
		deposit  float64
		want     float64
	}{
		{"discount only", 15000, 3000, 0, 12000},
		{"discount and deposit", 15000, 3000, 5000, 7000},
		{"no discount", 8000, 0, 0, 8000},
		{"floors at zero", 5000, 4000, 2000, 0},
		{"exact zero", 5000, 3000, 2000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FinalPrice(tc.price, tc.discount, tc.deposit))
		})
	}
}
