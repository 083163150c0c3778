package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Wireless Headphones": "wireless-headphones",
		"Điện thoại":          "dien-thoai",
		"Áo thun nữ":          "ao-thun-nu",
		"Café Crème":          "cafe-creme",
		"  Home & Living  ":   "home-living",
		"Tủ lạnh 2024!":       "tu-lanh-2024",
		"日本":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), in)
	}
}

func TestNewSlug(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^dien-thoai-[0-9a-f]{6}$`), newSlug("Điện thoại"))
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{6}$`), newSlug("日本"))
	assert.NotEqual(t, newSlug("Mug"), newSlug("Mug"))
}
