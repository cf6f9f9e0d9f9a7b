// Package grove is a small 3D entity-component scene engine for
// board-style games on hexagonal grids.
//
// A [Scene] owns a flat list of [Entity] values. Each entity carries a
// [Transform] (position, Euler rotation in degrees and scale, composed
// parent * T * Rz * Ry * Rx * S in a left-handed frame) and a list of
// [Component] values that receive lifecycle callbacks through small
// capability interfaces such as [Updater] and [Renderer].
//
// # Quick start
//
//	scene := grove.NewScene()
//	cam := scene.Spawn("Camera")
//	cam.Transform().SetPosition(mgl64.Vec3{0, 9, -7})
//	cam.Transform().SetRotation(mgl64.Vec3{55, 0, 0})
//	_ = cam.Attach(&grove.Camera{})
//
//	board := scene.Spawn("Board")
//	grid, _ := grove.CreateGrid(board, 7, 7, 1)
//	path, positions, ok := grid.CalculatePath(
//		grid.GetHexagonAt(grove.Axial{}),
//		grid.GetHexagonAt(grove.Axial{Q: 3, R: 1}),
//		grove.Walkable)
//
// The ebitengfx package opens a window and drives Scene.Update and
// Scene.Render every tick:
//
//	ebitengfx.Run(scene, ebitengfx.RunConfig{Title: "Hex", Width: 1280, Height: 720})
//
// # Frame order
//
// [Scene.Update] merges entities spawned since the previous frame, steps
// the optional [Physics] collaborator and updates every entity that is
// enabled in its hierarchy. Components attached or removed while their
// entity updates take effect when that entity next updates, and destroy
// requests made during the pass are applied once it ends.
//
// [Scene.Render] runs one pass per enabled [Camera] in descending render
// order. Each pass culls registered [MeshRenderer] components against the
// camera frustum, sorts the visible ones by render queue and draws the
// opaque bucket through the [Graphics] interface.
//
// # Grids and paths
//
// [CreateGrid] lays out flat-top hexagon cells in axial coordinates and
// registers them with a [HexagonalGrid]. [HexagonalGrid.CalculatePath]
// searches between two cells with a caller-supplied walkability predicate,
// and [PathFollower] tweens an entity along the result.
//
// # Events, resources and persistence
//
// An [EventSink] receives entity, component and camera lifecycle events;
// the ecs package forwards them to a donburi world. [Resources] caches
// meshes and materials by path. [Scene.Save] and [Scene.Load] write and
// read a YAML scene file holding every entity and its persistable
// components.
package grove
