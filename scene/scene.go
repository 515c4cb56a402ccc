package scene

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/tonihW/raytracer-v2/log"
	"github.com/tonihW/raytracer-v2/types"
)

// Aggregates everything required to render a frame: the triangle list, the
// materials keyed by name, the lights, the ambient radiance term, the
// spatial index and the camera.
//
// A scene is assembled by the readers, then frozen with Build before the
// parallel render phase starts. After Build the scene is read-only and may
// be shared by reference across any number of workers.
type Scene struct {
	Shapes    []*Triangle
	Materials map[string]*Material
	Lights    []Light
	Ambient   types.Vec3
	Camera    *Camera
	Bvh       *Bvh

	logger log.Logger
	built  bool
}

// Create a new empty scene with the given camera.
func NewScene(camera *Camera) *Scene {
	return &Scene{
		Shapes:    make([]*Triangle, 0),
		Materials: make(map[string]*Material),
		Lights:    make([]Light, 0),
		Camera:    camera,
		logger:    log.New("scene"),
	}
}

// Freeze the scene for rendering: drop degenerate triangles, resolve
// material references and build the spatial index. Build must be called
// exactly once, before the first trace.
func (s *Scene) Build() error {
	if s.built {
		return fmt.Errorf("scene: already built")
	}
	if len(s.Shapes) == 0 {
		return fmt.Errorf("scene: no triangles loaded")
	}

	// Zero-area triangles can never be hit and would produce degenerate
	// BVH leaves; drop them before indexing.
	kept := s.Shapes[:0]
	dropped := 0
	for _, tri := range s.Shapes {
		if tri.Area() <= 0.0 {
			dropped++
			continue
		}
		tri.mat = s.resolveMaterial(tri.MatName)
		kept = append(kept, tri)
	}
	s.Shapes = kept
	if dropped > 0 {
		s.logger.Warningf("dropped %d degenerate triangles", dropped)
	}
	if len(s.Shapes) == 0 {
		return fmt.Errorf("scene: all triangles degenerate")
	}

	s.Bvh = BuildBvh(s.Shapes)
	s.built = true
	return nil
}

// Resolve a material name to a material instance. Unknown or empty names
// deterministically fall back to the first material in name order, or to a
// default gray material when the scene defines none.
func (s *Scene) resolveMaterial(name string) *Material {
	if mat, exists := s.Materials[name]; exists {
		return mat
	}

	if len(s.Materials) > 0 {
		names := make([]string, 0, len(s.Materials))
		for matName := range s.Materials {
			names = append(names, matName)
		}
		sort.Strings(names)

		fallback := s.Materials[names[0]]
		s.logger.Warningf("material %q not found, falling back to %q", name, fallback.Name)
		return fallback
	}

	s.logger.Warningf("material %q not found, falling back to default material", name)
	def := &Material{
		Name:    name,
		Diffuse: types.Vec3{0.7, 0.7, 0.7},
	}
	s.Materials[name] = def
	return def
}

// Build a tabular representation of scene statistics.
func (s *Scene) Stats() string {
	texCount := 0
	var texBytes int
	for _, mat := range s.Materials {
		if mat.DiffuseTex != nil {
			texCount++
			texBytes += len(mat.DiffuseTex.Data)
		}
		if mat.AlphaTex != nil {
			texCount++
			texBytes += len(mat.AlphaTex.Data)
		}
	}

	var bvhNodes int
	if s.Bvh != nil {
		bvhNodes = len(s.Bvh.nodes)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Count", "Size"})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", len(s.Shapes)), fmtSize(len(s.Shapes) * 3 * (3 + 3 + 2) * 4)})
	table.Append([]string{"Materials", fmt.Sprintf("%d", len(s.Materials)), "---"})
	table.Append([]string{"Textures", fmt.Sprintf("%d", texCount), fmtSize(texBytes)})
	table.Append([]string{"Lights", fmt.Sprintf("%d", len(s.Lights)), "---"})
	table.Append([]string{"BVH nodes", fmt.Sprintf("%d", bvhNodes), fmtSize(bvhNodes * 32)})
	table.Render()

	return buf.String()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
