package reader

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/types"
)

func TestFloat32Parser(t *testing.T) {
	expError := `unsupported syntax for "Ns"; expected 1 argument; got 0`
	_, err := parseFloat32([]string{"Ns"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat32([]string{"Ns", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"Ns", "3.14"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestVec2Parser(t *testing.T) {
	expError := `unsupported syntax for "vt"; expected 2 arguments; got 0`
	_, err := parseVec2([]string{"vt"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec2([]string{"vt", "not-a-float", "2"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec2([]string{"vt", "3.14", "0"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec2{3.14, 0}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "-1"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, -1}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestFaceCoordIndexSelector(t *testing.T) {
	index, err := selectFaceCoordIndex("2", 3)
	if err != nil {
		t.Fatal(err)
	}
	if index != 1 {
		t.Fatalf("expected one-based index 2 to map to offset 1; got %d", index)
	}

	// Negative indices reference elements from the end of the list
	index, err = selectFaceCoordIndex("-1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if index != 2 {
		t.Fatalf("expected index -1 to map to offset 2; got %d", index)
	}

	if _, err = selectFaceCoordIndex("4", 3); err == nil {
		t.Fatal("expected out-of-bounds index to be rejected")
	}
	if _, err = selectFaceCoordIndex("not-an-int", 3); err == nil {
		t.Fatal("expected non-numeric index to be rejected")
	}
}

func writeTempFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, payload := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestWavefrontTriangleFace(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"model.obj": `
# triangle with explicit normals and uv coords
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 -1
vt 0 0
vt 1 0
vt 0 1
f 1/1/1 2/2/1 3/3/1
`,
	})

	sc := scene.NewScene(nil)
	if err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc); err != nil {
		t.Fatal(err)
	}

	if len(sc.Shapes) != 1 {
		t.Fatalf("expected 1 triangle; got %d", len(sc.Shapes))
	}

	tri := sc.Shapes[0]
	expNrm := types.Vec3{0, 0, -1}
	for i := 0; i < 3; i++ {
		if tri.Vrt[i].Nrm != expNrm {
			t.Fatalf("expected vertex %d normal to be %v; got %v", i, expNrm, tri.Vrt[i].Nrm)
		}
	}

	expTex := types.Vec2{1, 0}
	if tri.Vrt[1].Tex != expTex {
		t.Fatalf("expected vertex 1 tex coord to be %v; got %v", expTex, tri.Vrt[1].Tex)
	}
}

func TestWavefrontQuadFace(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"model.obj": `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`,
	})

	sc := scene.NewScene(nil)
	if err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc); err != nil {
		t.Fatal(err)
	}

	// Quads triangulate as 0,1,2 and 0,2,3
	if len(sc.Shapes) != 2 {
		t.Fatalf("expected quad to yield 2 triangles; got %d", len(sc.Shapes))
	}

	expPos := types.Vec3{0, 1, 0}
	if sc.Shapes[1].Vrt[2].Pos != expPos {
		t.Fatalf("expected second triangle to end at %v; got %v", expPos, sc.Shapes[1].Vrt[2].Pos)
	}
}

func TestWavefrontGeneratedNormals(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"model.obj": `
v 0 0 0
v 0 1 0
v 1 0 0
f 1 2 3
`,
	})

	sc := scene.NewScene(nil)
	if err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc); err != nil {
		t.Fatal(err)
	}

	// Face has no vn references; a flat normal is generated from the
	// winding
	expNrm := types.Vec3{0, 0, -1}
	for i := 0; i < 3; i++ {
		if sc.Shapes[0].Vrt[i].Nrm != expNrm {
			t.Fatalf("expected generated normal to be %v; got %v", expNrm, sc.Shapes[0].Vrt[i].Nrm)
		}
	}
}

func TestWavefrontMaterials(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"model.obj": `
mtllib model.mtl
v 0 0 0
v 1 0 0
v 0 1 0
usemtl shiny
f 1 2 3
`,
		"model.mtl": `
newmtl shiny
Ka 0.1 0.1 0.1
Kd 0.9 0.5 0.1
Ks 1 1 1
Ke 0 0 0
Ns 64
`,
	})

	sc := scene.NewScene(nil)
	if err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc); err != nil {
		t.Fatal(err)
	}

	mat, exists := sc.Materials["shiny"]
	if !exists {
		t.Fatal("expected material library to define material shiny")
	}

	expDiffuse := types.Vec3{0.9, 0.5, 0.1}
	if mat.Diffuse != expDiffuse {
		t.Fatalf("expected diffuse to be %v; got %v", expDiffuse, mat.Diffuse)
	}
	if mat.Shininess != 64 {
		t.Fatalf("expected shininess to be 64; got %f", mat.Shininess)
	}
	if sc.Shapes[0].MatName != "shiny" {
		t.Fatalf("expected face to reference material shiny; got %q", sc.Shapes[0].MatName)
	}
}

func TestWavefrontDiffuseTexture(t *testing.T) {
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "diffuse.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err = png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	files := map[string]string{
		"model.obj": `
mtllib model.mtl
v 0 0 0
v 1 0 0
v 0 1 0
usemtl textured
f 1 2 3
`,
		"model.mtl": `
newmtl textured
Kd 1 1 1
map_Kd diffuse.png
`,
	}
	for name, payload := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0644); err != nil {
			t.Fatal(err)
		}
	}

	sc := scene.NewScene(nil)
	if err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc); err != nil {
		t.Fatal(err)
	}

	tex := sc.Materials["textured"].DiffuseTex
	if tex == nil {
		t.Fatal("expected material to carry a diffuse texture")
	}
	if tex.Width != 2 || tex.Height != 2 {
		t.Fatalf("expected a 2x2 texture; got %dx%d", tex.Width, tex.Height)
	}
	if tex.Kind != scene.TexDiffuse {
		t.Fatalf("expected texture kind %d; got %d", scene.TexDiffuse, tex.Kind)
	}
	if tex.Data[0] != 200 || tex.Data[1] != 100 || tex.Data[2] != 50 || tex.Data[3] != 255 {
		t.Fatalf("expected first texel to be 200/100/50/255; got %v", tex.Data[:4])
	}
}

func TestWavefrontUndefinedMaterial(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"model.obj": `
v 0 0 0
usemtl missing
`,
	})

	sc := scene.NewScene(nil)
	err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc)
	if err == nil || !strings.Contains(err.Error(), `undefined material with name "missing"`) {
		t.Fatalf("expected an undefined material error; got %v", err)
	}
}

func TestWavefrontMissingMaterialLib(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"model.obj": `
mtllib missing.mtl
`,
	})

	sc := scene.NewScene(nil)
	err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc)
	if err == nil {
		t.Fatal("expected a missing material library error")
	}

	// The error stack must point back at the mtllib statement
	if !strings.Contains(err.Error(), "[mtllib]") {
		t.Fatalf("expected error to reference the mtllib statement; got %v", err)
	}
}

func TestWavefrontMalformedFace(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"model.obj": `
v 0 0 0
v 1 0 0
f 1 2
`,
	})

	sc := scene.NewScene(nil)
	if err := readWavefrontModel(filepath.Join(dir, "model.obj"), sc); err == nil {
		t.Fatal("expected a malformed face error")
	}
}
