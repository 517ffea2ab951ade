package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDamage(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"50", 50, true},
		{" 1200 ", 1200, true},
		{"3k", 3_000, true},
		{"114w", 1_140_000, true},
		{"1kw", 10_000_000, true},
		{"2万", 20_000, true},
		{"1亿", 100_000_000, true},
		{"1,234,567", 1_234_567, true},
		{"１２３Ｗ", 1_230_000, true},
		{"0", 0, false},
		{"", 0, false},
		{"w", 0, false},
		{"-5", 0, false},
		{"12.5w", 0, false},
		{"1kwk", 0, false},
		{"1w2", 0, false},
		{"abc", 0, false},
		{"99999999999999999999", 0, false},
		{"99999999999e", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseDamage(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		if c.ok {
			assert.Equal(t, c.want, got, "input %q", c.in)
		}
	}
}
