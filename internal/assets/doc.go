// Package assets writes clothing asset bundles into an output tree.
//
// Store is the shared asset database. It is not safe for concurrent use and
// must only be mutated from the goroutine that drains the batch engine's
// AffineExecutor. Every mutating method enforces this through an owner check.
//
// Generator turns one inspected texture into a bundle:
//
//	<out>/Clothing/<TypeFolder>/<name>/
//	    <image>.png            copied texture
//	    <image>.png.meta.yaml  import settings
//	    <name>_Mat.mat.yaml    cutout material
//	    Item.prefab.yaml       item object with icon child
//	    Animations.prefab.yaml when equip or use animations are set
//	    <Type>.prefab.yaml     enemy object for special types
//
// Tags, layers and the bundle manifest are written when the store is flushed.
package assets
