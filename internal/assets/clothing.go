package assets

import (
	"fmt"
	"strings"
)

// ClothingType selects the folder, image name and extra prefabs of a bundle.
type ClothingType int

const (
	Shirt ClothingType = iota
	Pants
	Vest
	Hat
	Glasses
	Mask
	Backpack
)

type clothingInfo struct {
	name    string
	folder  string
	image   string
	special bool
}

//nolint:gochecknoglobals // static lookup table
var clothingTable = map[ClothingType]clothingInfo{
	Shirt:    {name: "Shirt", folder: "Shirts", image: "shirt.png"},
	Pants:    {name: "Pants", folder: "Pants", image: "pants.png"},
	Vest:     {name: "Vest", folder: "Vests", image: "vest.png", special: true},
	Hat:      {name: "Hat", folder: "Hats", image: "Hat.png", special: true},
	Glasses:  {name: "Glasses", folder: "Glasses", image: "Glasses.png", special: true},
	Mask:     {name: "Mask", folder: "Masks", image: "Mask.png", special: true},
	Backpack: {name: "Backpack", folder: "Backpacks", image: "Backpack.png", special: true},
}

// ClothingTypes lists every type in declaration order.
func ClothingTypes() []ClothingType {
	return []ClothingType{Shirt, Pants, Vest, Hat, Glasses, Mask, Backpack}
}

// ParseClothingType accepts a type name in any case.
func ParseClothingType(s string) (ClothingType, error) {
	for _, t := range ClothingTypes() {
		if strings.EqualFold(clothingTable[t].name, strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown clothing type %q (want one of %s)", s, strings.Join(clothingNames(), ", "))
}

func clothingNames() []string {
	names := make([]string, 0, len(clothingTable))
	for _, t := range ClothingTypes() {
		names = append(names, strings.ToLower(clothingTable[t].name))
	}
	return names
}

func (t ClothingType) String() string {
	if info, ok := clothingTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("ClothingType(%d)", int(t))
}

// Folder is the per-type directory under Clothing/.
func (t ClothingType) Folder() string { return clothingTable[t].folder }

// ImageName is the file name the copied texture receives.
func (t ClothingType) ImageName() string { return clothingTable[t].image }

// IsSpecial reports whether the type also gets an enemy prefab.
func (t ClothingType) IsSpecial() bool { return clothingTable[t].special }
