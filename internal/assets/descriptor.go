package assets

// Tags and layers used by generated objects.
const (
	TagItem  = "Item"
	TagLogic = "Logic"
	TagEnemy = "Enemy"
)

// Vec3 is a position, rotation or size.
type Vec3 [3]float64

// TextureMeta records import settings for a copied texture.
type TextureMeta struct {
	Source      string `yaml:"source"`
	SHA256      string `yaml:"sha256"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Format      string `yaml:"format"`
	AlphaIsCut  bool   `yaml:"alpha_is_transparency"`
	Mipmaps     bool   `yaml:"mipmaps"`
	FilterMode  string `yaml:"filter_mode"`
	Compression string `yaml:"compression"`
}

// Material is a cutout material bound to one texture.
type Material struct {
	Name        string             `yaml:"name"`
	Shader      string             `yaml:"shader"`
	MainTexture string             `yaml:"main_texture"`
	RenderType  string             `yaml:"render_type"`
	RenderQueue int                `yaml:"render_queue"`
	Keywords    []string           `yaml:"keywords"`
	Floats      map[string]float64 `yaml:"floats"`
}

// Component is one attached behaviour.
type Component struct {
	Type     string            `yaml:"type"`
	Mesh     string            `yaml:"mesh,omitempty"`
	Material string            `yaml:"material,omitempty"`
	Center   *Vec3             `yaml:"center,omitempty"`
	Size     *Vec3             `yaml:"size,omitempty"`
	Clips    map[string]string `yaml:"clips,omitempty"`
	Autoplay string            `yaml:"autoplay,omitempty"`
}

// GameObject is a node in a prefab hierarchy.
type GameObject struct {
	Name       string       `yaml:"name"`
	Tag        string       `yaml:"tag"`
	Layer      int          `yaml:"layer"`
	Position   Vec3         `yaml:"position"`
	LookAt     *Vec3        `yaml:"look_at,omitempty"`
	Components []Component  `yaml:"components,omitempty"`
	Children   []GameObject `yaml:"children,omitempty"`
}

// Prefab is a saved object hierarchy.
type Prefab struct {
	Root GameObject `yaml:"root"`
}

// User layers occupy slots 8 through 31.
const (
	firstUserLayer = 8
	layerSlots     = 32
)

// tagManager mirrors ProjectSettings/TagManager.yaml.
type tagManager struct {
	Tags   []string       `yaml:"tags"`
	Layers map[int]string `yaml:"layers"`
}

// Bundle is one manifest entry.
type Bundle struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Source   string   `yaml:"source"`
	SHA256   string   `yaml:"sha256"`
	Folder   string   `yaml:"folder"`
	Assets   []string `yaml:"assets"`
	Replaced bool     `yaml:"replaced,omitempty"`
}

// manifest mirrors manifest.yaml.
type manifest struct {
	Generator string   `yaml:"generator"`
	Bundles   []Bundle `yaml:"bundles"`
}
