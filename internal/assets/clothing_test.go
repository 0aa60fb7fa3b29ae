package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClothingType(t *testing.T) {
	tests := []struct {
		in      string
		want    ClothingType
		folder  string
		image   string
		special bool
	}{
		{"shirt", Shirt, "Shirts", "shirt.png", false},
		{"Pants", Pants, "Pants", "pants.png", false},
		{"VEST", Vest, "Vests", "vest.png", true},
		{"hat", Hat, "Hats", "Hat.png", true},
		{"glasses", Glasses, "Glasses", "Glasses.png", true},
		{" mask ", Mask, "Masks", "Mask.png", true},
		{"backpack", Backpack, "Backpacks", "Backpack.png", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClothingType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.folder, got.Folder())
			assert.Equal(t, tt.image, got.ImageName())
			assert.Equal(t, tt.special, got.IsSpecial())
		})
	}

	_, err := ParseClothingType("cape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shirt, pants, vest")
	assert.Equal(t, "ClothingType(99)", ClothingType(99).String())
}
