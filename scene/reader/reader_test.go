package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/types"
)

const testSceneDoc = `{
	"camera": {
		"position": [0, 1, -5],
		"rot_axis": [0, 1, 0],
		"rot_angle": 0
	},
	"models": ["model.obj"],
	"lights": [
		{"type": "AmbientLight", "emission": [0.1, 0.2, 0.3]},
		{"type": "DirLight", "direction": [0, -1, 0], "emission": [1, 1, 1]},
		{"type": "PointLight", "position": [0, 5, 0], "emission": [2, 2, 2], "c": 1, "l": 0.1, "q": 0.01},
		{"type": "DiscoLight", "emission": [9, 9, 9]}
	]
}`

const testModelDoc = `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

func TestReadScene(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"scene.json": testSceneDoc,
		"model.obj":  testModelDoc,
	})

	sc, err := ReadScene(filepath.Join(dir, "scene.json"), 640, 480)
	if err != nil {
		t.Fatal(err)
	}

	if sc.Bvh == nil {
		t.Fatal("expected the loaded scene to be built")
	}
	if len(sc.Shapes) != 1 {
		t.Fatalf("expected 1 triangle; got %d", len(sc.Shapes))
	}

	expAmbient := types.Vec3{0.1, 0.2, 0.3}
	if sc.Ambient != expAmbient {
		t.Fatalf("expected ambient term to be %v; got %v", expAmbient, sc.Ambient)
	}

	// Unknown light types are skipped with a warning
	if len(sc.Lights) != 2 {
		t.Fatalf("expected 2 lights; got %d", len(sc.Lights))
	}
	if _, ok := sc.Lights[0].(*scene.DirLight); !ok {
		t.Fatalf("expected first light to be directional; got %T", sc.Lights[0])
	}
	if _, ok := sc.Lights[1].(*scene.PointLight); !ok {
		t.Fatalf("expected second light to be a point light; got %T", sc.Lights[1])
	}

	expPos := types.Vec3{0, 1, -5}
	if sc.Camera.Trf.Pos != expPos {
		t.Fatalf("expected camera position to be %v; got %v", expPos, sc.Camera.Trf.Pos)
	}
	if sc.Camera.ViewportW != 640 || sc.Camera.ViewportH != 480 {
		t.Fatalf("expected 640x480 viewport; got %fx%f", sc.Camera.ViewportW, sc.Camera.ViewportH)
	}
}

func TestReadSceneUnsupportedModel(t *testing.T) {
	dir := writeTempFiles(t, map[string]string{
		"scene.json": `{"models": ["model.stl"]}`,
		"model.stl":  "solid model",
	})

	_, err := ReadScene(filepath.Join(dir, "scene.json"), 512, 512)
	if err == nil || !strings.Contains(err.Error(), "unsupported model format") {
		t.Fatalf("expected an unsupported model format error; got %v", err)
	}
}

func TestReadSceneMissingFile(t *testing.T) {
	if _, err := ReadScene(filepath.Join(t.TempDir(), "nope.json"), 512, 512); err == nil {
		t.Fatal("expected an error for a missing scene file")
	}
}

func TestReadSceneMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadScene(filepath.Join(dir, "scene.json"), 512, 512)
	if err == nil || !strings.Contains(err.Error(), "could not parse") {
		t.Fatalf("expected a parse error; got %v", err)
	}
}
