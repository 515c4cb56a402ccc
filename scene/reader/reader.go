// Package reader loads scene descriptions and their referenced assets
// (meshes, materials, textures) into renderable scenes.
package reader

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tonihW/raytracer-v2/log"
	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/types"
)

var logger = log.New("scene reader")

// The on-disk scene description document.
type sceneFile struct {
	Camera struct {
		Position [3]float32 `json:"position"`
		RotAxis  [3]float32 `json:"rot_axis"`

		// Rotation angle in degrees.
		RotAngle float32 `json:"rot_angle"`
	} `json:"camera"`

	Models []string `json:"models"`
	Lights []struct {
		Type      string     `json:"type"`
		Direction [3]float32 `json:"direction"`
		Position  [3]float32 `json:"position"`
		Emission  [3]float32 `json:"emission"`
		C         float32    `json:"c"`
		L         float32    `json:"l"`
		Q         float32    `json:"q"`
	} `json:"lights"`
}

// Read a scene description document and load all referenced models,
// materials and lights. Any failure while loading is fatal for the whole
// scene; the renderer never starts from partially loaded data.
//
// The returned scene is already built and ready for rendering.
func ReadScene(pathToFile string, frameW, frameH uint32) (*scene.Scene, error) {
	logger.Noticef(`parsing scene from "%s"`, pathToFile)
	start := time.Now()

	f, err := os.Open(pathToFile)
	if err != nil {
		return nil, fmt.Errorf("scene: %v", err)
	}
	defer f.Close()

	var doc sceneFile
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("scene: could not parse %s: %v", pathToFile, err)
	}

	camera := scene.CameraFromAxisAngle(
		types.Vec3(doc.Camera.Position),
		types.Vec3(doc.Camera.RotAxis),
		doc.Camera.RotAngle*math.Pi/180.0,
		float32(frameW),
		float32(frameH),
	)
	sc := scene.NewScene(camera)

	baseDir := filepath.Dir(pathToFile)
	for _, model := range doc.Models {
		pathToModel := model
		if !filepath.IsAbs(pathToModel) {
			pathToModel = filepath.Join(baseDir, pathToModel)
		}

		switch strings.ToLower(filepath.Ext(pathToModel)) {
		case ".obj":
			err = readWavefrontModel(pathToModel, sc)
		case ".gltf", ".glb":
			err = readGltfModel(pathToModel, sc)
		default:
			err = fmt.Errorf("unsupported model format %q", filepath.Ext(pathToModel))
		}
		if err != nil {
			return nil, fmt.Errorf("scene: model %s: %v", model, err)
		}
	}

	for _, light := range doc.Lights {
		logger.Infof(`loading light of type "%s"`, light.Type)
		switch light.Type {
		case "AmbientLight":
			sc.Ambient = types.Vec3(light.Emission)
		case "DirLight":
			sc.Lights = append(sc.Lights, &scene.DirLight{
				Direction: types.Vec3(light.Direction),
				Emission:  types.Vec3(light.Emission),
			})
		case "PointLight":
			sc.Lights = append(sc.Lights, &scene.PointLight{
				Position: types.Vec3(light.Position),
				Emission: types.Vec3(light.Emission),
				C:        light.C,
				L:        light.L,
				Q:        light.Q,
			})
		default:
			logger.Warningf(`skipping light of unknown type "%s"`, light.Type)
		}
	}

	if err := sc.Build(); err != nil {
		return nil, err
	}

	logger.Noticef("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
