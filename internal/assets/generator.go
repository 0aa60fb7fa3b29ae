package assets

import (
	"fmt"
	"path"

	"github.com/rshade/clothgen/internal/engine/batch"
	"github.com/rshade/clothgen/internal/texture"
)

// Material settings for alpha-tested cloth.
const (
	shaderStandard   = "Standard"
	renderCutout     = "TransparentCutout"
	queueAlphaTest   = 2450
	alphaCutoff      = 0.5
	builtinQuadMesh  = "builtin:Quad"
	clothingRootName = "Clothing"
)

// DefaultIconOffset places the icon camera in front of the item.
//
//nolint:gochecknoglobals // immutable default
var DefaultIconOffset = Vec3{0, 0, -2}

// Options configure the generated bundle.
type Options struct {
	Type           ClothingType
	Mesh           string
	EquipAnimation string
	UseAnimation   string
	IconOffset     Vec3
}

// Generator creates bundles in a Store. It implements
// batch.Mutator[texture.Info] and batch.Flusher.
type Generator struct {
	store *Store
	opts  Options
}

// NewGenerator binds opts to store.
func NewGenerator(store *Store, opts Options) *Generator {
	if opts.IconOffset == (Vec3{}) {
		opts.IconOffset = DefaultIconOffset
	}
	return &Generator{store: store, opts: opts}
}

// Store returns the underlying asset store.
func (g *Generator) Store() *Store { return g.store }

// BundleFolder returns the folder a texture name is generated into.
func (g *Generator) BundleFolder(name string) string {
	return path.Join(clothingRootName, g.opts.Type.Folder(), name)
}

// Mutate generates the bundle for one inspected texture.
func (g *Generator) Mutate(item batch.WorkItem, info texture.Info) error {
	layers, err := g.ensureTagsAndLayers()
	if err != nil {
		return err
	}

	name := info.Name
	if name == "" {
		name = texture.NameOf(item.Path)
	}
	folder := g.BundleFolder(name)
	if err = g.store.EnsureFolder(folder); err != nil {
		return err
	}

	imageRel := path.Join(folder, g.opts.Type.ImageName())
	if err = g.store.CopyFile(info.Path, imageRel); err != nil {
		return err
	}
	metaRel := imageRel + ".meta.yaml"
	if err = g.store.WriteYAML(metaRel, g.textureMeta(item, info)); err != nil {
		return err
	}

	matRel := path.Join(folder, name+"_Mat.mat.yaml")
	if err = g.store.WriteYAML(matRel, g.material(name, imageRel)); err != nil {
		return err
	}

	itemRel := path.Join(folder, "Item.prefab.yaml")
	if err = g.store.WriteYAML(itemRel, g.itemPrefab(name, matRel, layers[TagItem])); err != nil {
		return err
	}
	written := []string{imageRel, metaRel, matRel, itemRel}

	if g.opts.EquipAnimation != "" || g.opts.UseAnimation != "" {
		animRel := path.Join(folder, "Animations.prefab.yaml")
		if err = g.store.WriteYAML(animRel, g.animationPrefab(layers[TagLogic])); err != nil {
			return err
		}
		written = append(written, animRel)
	}

	if g.opts.Type.IsSpecial() {
		specialRel := path.Join(folder, g.opts.Type.String()+".prefab.yaml")
		if err = g.store.WriteYAML(specialRel, g.specialPrefab(matRel, layers[TagEnemy])); err != nil {
			return err
		}
		written = append(written, specialRel)
	}

	_, err = g.store.RecordBundle(Bundle{
		Name:   name,
		Type:   g.opts.Type.String(),
		Source: item.ID,
		SHA256: info.SHA256,
		Folder: folder,
		Assets: written,
	})
	return err
}

// Flush persists tags, layers and the manifest.
func (g *Generator) Flush() error {
	return g.store.Flush()
}

func (g *Generator) ensureTagsAndLayers() (map[string]int, error) {
	names := []string{TagItem, TagLogic}
	if g.opts.Type.IsSpecial() {
		names = append(names, TagEnemy)
	}
	layers := make(map[string]int, len(names))
	for _, n := range names {
		if err := g.store.EnsureTag(n); err != nil {
			return nil, err
		}
		slot, err := g.store.EnsureLayer(n)
		if err != nil {
			return nil, err
		}
		layers[n] = slot
	}
	return layers, nil
}

func (g *Generator) textureMeta(item batch.WorkItem, info texture.Info) TextureMeta {
	return TextureMeta{
		Source:      item.ID,
		SHA256:      info.SHA256,
		Width:       info.Width,
		Height:      info.Height,
		Format:      info.Format,
		AlphaIsCut:  info.HasAlpha,
		Mipmaps:     false,
		FilterMode:  "point",
		Compression: "compressed_hq",
	}
}

func (g *Generator) material(name, imageRel string) Material {
	return Material{
		Name:        name + "_Mat",
		Shader:      shaderStandard,
		MainTexture: imageRel,
		RenderType:  renderCutout,
		RenderQueue: queueAlphaTest,
		Keywords:    []string{"_ALPHATEST_ON"},
		Floats: map[string]float64{
			"_Mode":     1,
			"_Cutoff":   alphaCutoff,
			"_SrcBlend": 1,
			"_DstBlend": 0,
			"_ZWrite":   1,
		},
	}
}

func (g *Generator) meshComponents(matRel string) []Component {
	mesh := g.opts.Mesh
	collider := "BoxCollider"
	if mesh == "" {
		mesh = builtinQuadMesh
		collider = "MeshCollider"
	}
	return []Component{
		{Type: "MeshFilter", Mesh: mesh},
		{Type: "MeshRenderer", Material: matRel},
		{Type: collider},
	}
}

func (g *Generator) itemPrefab(name, matRel string, layer int) Prefab {
	origin := Vec3{}
	return Prefab{Root: GameObject{
		Name:       name,
		Tag:        TagItem,
		Layer:      layer,
		Components: g.meshComponents(matRel),
		Children: []GameObject{{
			Name:     "Icon",
			Tag:      TagItem,
			Layer:    layer,
			Position: g.opts.IconOffset,
			LookAt:   &origin,
		}},
	}}
}

func (g *Generator) animationPrefab(layer int) Prefab {
	clips := map[string]string{}
	anim := Component{Type: "Animation", Clips: clips}
	if g.opts.EquipAnimation != "" {
		clips["Equip"] = g.opts.EquipAnimation
		anim.Autoplay = "Equip"
	}
	if g.opts.UseAnimation != "" {
		clips["Use"] = g.opts.UseAnimation
	}
	return Prefab{Root: GameObject{
		Name:       "Animations",
		Tag:        TagLogic,
		Layer:      layer,
		Components: []Component{anim},
	}}
}

func (g *Generator) specialPrefab(matRel string, layer int) Prefab {
	model := GameObject{
		Name:  "Model_0",
		Tag:   TagEnemy,
		Layer: layer,
		Components: []Component{
			{Type: "MeshFilter", Mesh: g.opts.Mesh},
			{Type: "MeshRenderer"},
		},
	}
	if g.opts.Mesh != "" {
		model.Components[1].Material = matRel
	}
	return Prefab{Root: GameObject{
		Name:       g.opts.Type.String(),
		Tag:        TagEnemy,
		Layer:      layer,
		Components: []Component{{Type: "BoxCollider"}},
		Children:   []GameObject{model},
	}}
}

// String describes the generator for logs.
func (g *Generator) String() string {
	return fmt.Sprintf("%s generator at %s", g.opts.Type, g.store.Root())
}
