package tracer

import (
	"math"
	"testing"

	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/types"
)

// Create a large triangle in the z=plane plane whose front face points
// toward negative z.
func wallFacingCamera(plane float32, matName string) *scene.Triangle {
	nrm := types.Vec3{0, 0, -1}
	return &scene.Triangle{
		Vrt: [3]scene.Vertex{
			{Pos: types.Vec3{-100, -100, plane}, Nrm: nrm},
			{Pos: types.Vec3{0, 100, plane}, Nrm: nrm},
			{Pos: types.Vec3{100, -100, plane}, Nrm: nrm},
		},
		MatName: matName,
	}
}

// Same plane and extent but wound the other way, so the front face points
// toward positive z.
func wallFacingAway(plane float32, matName string) *scene.Triangle {
	nrm := types.Vec3{0, 0, 1}
	return &scene.Triangle{
		Vrt: [3]scene.Vertex{
			{Pos: types.Vec3{-100, -100, plane}, Nrm: nrm},
			{Pos: types.Vec3{100, -100, plane}, Nrm: nrm},
			{Pos: types.Vec3{0, 100, plane}, Nrm: nrm},
		},
		MatName: matName,
	}
}

func fullyTransparentTex() *scene.Texture {
	return &scene.Texture{Kind: scene.TexAlpha, Width: 1, Height: 1, Data: []byte{255, 0}}
}

func vec3Near(a, b types.Vec3, eps float32) bool {
	return float32(math.Abs(float64(a[0]-b[0]))) <= eps &&
		float32(math.Abs(float64(a[1]-b[1]))) <= eps &&
		float32(math.Abs(float64(a[2]-b[2]))) <= eps
}

func TestTraceDirectLighting(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Materials["wall"] = &scene.Material{Name: "wall", Diffuse: types.Vec3{1, 0.5, 0.25}}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "wall"))
	sc.Lights = append(sc.Lights, &scene.DirLight{
		Direction: types.Vec3{0, 0, 1},
		Emission:  types.Vec3{1, 1, 1},
	})
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	rt := New()
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	got := rt.Trace(sc, &ray, 0)

	// Head-on light: radiance = emission * diffuse * cos(0)
	exp := types.Vec3{1, 0.5, 0.25}
	if !vec3Near(got, exp, 1e-4) {
		t.Fatalf("expected radiance %v; got %v", exp, got)
	}
}

func TestTraceSpecularHighlight(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Materials["glossy"] = &scene.Material{
		Name:      "glossy",
		Diffuse:   types.Vec3{1, 0.5, 0.25},
		Shininess: 10,
	}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "glossy"))
	sc.Lights = append(sc.Lights, &scene.DirLight{
		Direction: types.Vec3{0, 0, 1},
		Emission:  types.Vec3{1, 1, 1},
	})
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	rt := New()
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	got := rt.Trace(sc, &ray, 0)

	// Viewer sits exactly on the mirror direction so the specular term
	// peaks at 1 and doubles the diffuse contribution
	exp := types.Vec3{2, 1, 0.5}
	if !vec3Near(got, exp, 1e-4) {
		t.Fatalf("expected radiance %v; got %v", exp, got)
	}
}

func TestTraceShadow(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Ambient = types.Vec3{0.1, 0.1, 0.1}
	sc.Materials["wall"] = &scene.Material{Name: "wall", Diffuse: types.Vec3{1, 0.5, 0.25}}
	sc.Materials["blocker"] = &scene.Material{Name: "blocker", Diffuse: types.Vec3{1, 1, 1}}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "wall"))

	// Occluder between the wall and the light. Its front face points away
	// from the camera so primary rays pass through it unharmed while
	// shadow rays hit it.
	sc.Shapes = append(sc.Shapes, wallFacingAway(-2, "blocker"))
	sc.Lights = append(sc.Lights, &scene.DirLight{
		Direction: types.Vec3{0, 0, 1},
		Emission:  types.Vec3{1, 1, 1},
	})
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	rt := New()
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	got := rt.Trace(sc, &ray, 0)

	// Direct lighting is blocked; only the ambient term survives
	exp := sc.Ambient.MulVec(types.Vec3{1, 0.5, 0.25})
	if !vec3Near(got, exp, 1e-4) {
		t.Fatalf("expected shadowed radiance %v; got %v", exp, got)
	}
}

func TestTraceTransparentOccluderCastsNoShadow(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Materials["wall"] = &scene.Material{Name: "wall", Diffuse: types.Vec3{1, 0.5, 0.25}}
	sc.Materials["glass"] = &scene.Material{
		Name:     "glass",
		Diffuse:  types.Vec3{1, 1, 1},
		AlphaTex: fullyTransparentTex(),
	}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "wall"))
	sc.Shapes = append(sc.Shapes, wallFacingAway(-2, "glass"))
	sc.Lights = append(sc.Lights, &scene.DirLight{
		Direction: types.Vec3{0, 0, 1},
		Emission:  types.Vec3{1, 1, 1},
	})
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	rt := New()
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	got := rt.Trace(sc, &ray, 0)

	// The transparent occluder must not block the light
	exp := types.Vec3{1, 0.5, 0.25}
	if !vec3Near(got, exp, 1e-4) {
		t.Fatalf("expected unshadowed radiance %v; got %v", exp, got)
	}
}

func TestTraceCutoutContinuation(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Materials["veil"] = &scene.Material{
		Name:     "veil",
		Diffuse:  types.Vec3{1, 0, 0},
		AlphaTex: fullyTransparentTex(),
	}
	sc.Materials["wall"] = &scene.Material{Name: "wall", Diffuse: types.Vec3{0, 1, 0}}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "veil"))
	sc.Shapes = append(sc.Shapes, wallFacingCamera(2, "wall"))
	sc.Lights = append(sc.Lights, &scene.DirLight{
		Direction: types.Vec3{0, 0, 1},
		Emission:  types.Vec3{1, 1, 1},
	})
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	rt := New()
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	got := rt.Trace(sc, &ray, 0)

	// The ray passes through the transparent surface and shades the wall
	// behind it
	exp := types.Vec3{0, 1, 0}
	if !vec3Near(got, exp, 1e-4) {
		t.Fatalf("expected pass-through radiance %v; got %v", exp, got)
	}
}

func TestTraceRecursionBound(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Ambient = types.Vec3{1, 1, 1}
	sc.Materials["veil"] = &scene.Material{
		Name:     "veil",
		Diffuse:  types.Vec3{1, 0, 0},
		AlphaTex: fullyTransparentTex(),
	}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "veil"))
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	// Depth 0 hits the transparent surface; the continuation at depth 1
	// exceeds the bound and contributes zero instead of the background
	rt := &Raytracer{MaxDepth: 0}
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	got := rt.Trace(sc, &ray, 0)

	exp := types.Vec3{}
	if got != exp {
		t.Fatalf("expected depth-bounded radiance %v; got %v", exp, got)
	}
}

func TestTraceBackground(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Ambient = types.Vec3{0.2, 0.3, 0.4}
	sc.Materials["wall"] = &scene.Material{Name: "wall", Diffuse: types.Vec3{1, 1, 1}}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "wall"))
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	rt := New()
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, -1})
	got := rt.Trace(sc, &ray, 0)

	if got != sc.Ambient {
		t.Fatalf("expected background radiance %v; got %v", sc.Ambient, got)
	}
}

func TestTraceEmission(t *testing.T) {
	sc := scene.NewScene(nil)
	sc.Materials["lamp"] = &scene.Material{
		Name:     "lamp",
		Diffuse:  types.Vec3{0, 0, 0},
		Emission: types.Vec3{3, 2, 1},
	}
	sc.Shapes = append(sc.Shapes, wallFacingCamera(0, "lamp"))
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}

	rt := New()
	ray := scene.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	got := rt.Trace(sc, &ray, 0)

	if !vec3Near(got, sc.Materials["lamp"].Emission, 1e-5) {
		t.Fatalf("expected emitted radiance %v; got %v", sc.Materials["lamp"].Emission, got)
	}
}
