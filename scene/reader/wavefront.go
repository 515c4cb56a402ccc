package reader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tonihW/raytracer-v2/log"
	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/types"
)

type wavefrontReader struct {
	logger log.Logger

	sc *scene.Scene

	// Currently selected material name.
	curMaterial string

	// List of vertices, normals and uv coords parsed so far.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// obj files reference other files (material libs, textures).
	errStack []string
}

// Load a wavefront obj model and its material libraries into the scene.
func readWavefrontModel(pathToFile string, sc *scene.Scene) error {
	r := &wavefrontReader{
		logger:     log.New("wavefront reader"),
		sc:         sc,
		vertexList: make([]types.Vec3, 0),
		normalList: make([]types.Vec3, 0),
		uvList:     make([]types.Vec2, 0),
		errStack:   make([]string, 0),
	}
	return r.parse(pathToFile)
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return fmt.Errorf("%s", errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object geometry.
func (r *wavefrontReader) parse(pathToFile string) error {
	f, err := os.Open(pathToFile)
	if err != nil {
		return r.emitError("", 0, "%v", err)
	}
	defer f.Close()

	var lineNum int = 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(pathToFile, lineNum, `unsupported syntax for "mtllib"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [mtllib]", pathToFile, lineNum))
			if err := r.parseMaterials(filepath.Join(filepath.Dir(pathToFile), lineTokens[1])); err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(pathToFile, lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			if _, exists := r.sc.Materials[matName]; !exists {
				return r.emitError(pathToFile, lineNum, `undefined material with name "%s"`, matName)
			}
			r.curMaterial = matName
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(pathToFile, lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(pathToFile, lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(pathToFile, lineNum, "%s", err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "f":
			if err := r.parseFace(lineTokens); err != nil {
				return r.emitError(pathToFile, lineNum, "%s", err.Error())
			}
		}
	}

	return scanner.Err()
}

// Parse face definition. Each face definition consists of 3 arguments for
// a triangular face or 4 for a quad, one for each vertex. Each vertex
// argument uses one of the following formats:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start at 1 and may be negative to reference elements from the
// end of the respective coordinate list.
func (r *wavefrontReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for a triangular face or 4 for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var vertices [4]types.Vec3
	var normals [4]types.Vec3
	var uv [4]types.Vec2
	expIndices := 0
	hasNormals := false
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList))
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]

		if expIndices > 1 && vTokens[1] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList))
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			uv[arg] = r.uvList[vOffset]
		}

		if expIndices > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList))
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[vOffset]
			hasNormals = true
		}
	}

	// If no normals are available generate a flat face normal
	if !hasNormals {
		e01 := vertices[1].Sub(vertices[0])
		e02 := vertices[2].Sub(vertices[0])
		faceNormal := e01.Cross(e02).Normalize()
		normals[0] = faceNormal
		normals[1] = faceNormal
		normals[2] = faceNormal
		normals[3] = faceNormal
	}

	// Assemble one or two triangles depending on whether this is a
	// triangular or a quad face
	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	for _, indices := range indiceList {
		tri := &scene.Triangle{MatName: r.curMaterial}
		for triIndex, selectIndex := range indices {
			tri.Vrt[triIndex] = scene.Vertex{
				Pos: vertices[selectIndex],
				Nrm: normals[selectIndex],
				Tex: uv[selectIndex],
			}
		}
		r.sc.Shapes = append(r.sc.Shapes, tri)
	}

	return nil
}

// Parse a wavefront material library.
func (r *wavefrontReader) parseMaterials(pathToFile string) error {
	f, err := os.Open(pathToFile)
	if err != nil {
		return r.emitError("", 0, "%v", err)
	}
	defer f.Close()

	r.logger.Infof(`parsing material library "%s"`, pathToFile)

	var lineNum int = 0
	var curMaterial *scene.Material

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return r.emitError(pathToFile, lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			if _, exists := r.sc.Materials[matName]; exists {
				return r.emitError(pathToFile, lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = &scene.Material{Name: matName}
			r.sc.Materials[matName] = curMaterial
			continue
		}

		if curMaterial == nil {
			return r.emitError(pathToFile, lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
		}

		switch lineTokens[0] {
		case "Ka", "Kd", "Ks", "Ke":
			var target *types.Vec3
			switch lineTokens[0] {
			case "Ka":
				target = &curMaterial.Ambient
			case "Kd":
				target = &curMaterial.Diffuse
			case "Ks":
				target = &curMaterial.Specular
			case "Ke":
				target = &curMaterial.Emission
			}

			*target, err = parseVec3(lineTokens)
		case "Ns":
			curMaterial.Shininess, err = parseFloat32(lineTokens)
		case "map_Kd", "map_d":
			if len(lineTokens) < 2 {
				return r.emitError(pathToFile, lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", pathToFile, lineNum, lineTokens[0]))
			pathToTexture := filepath.Join(filepath.Dir(pathToFile), filepath.FromSlash(strings.ReplaceAll(lineTokens[1], "\\", "/")))

			var tex *scene.Texture
			switch lineTokens[0] {
			case "map_Kd":
				r.logger.Infof(`loading diffuse texture "%s"`, lineTokens[1])
				tex, err = readTexture(pathToTexture, scene.TexDiffuse)
				curMaterial.DiffuseTex = tex
			case "map_d":
				r.logger.Infof(`loading alpha texture "%s"`, lineTokens[1])
				tex, err = readTexture(pathToTexture, scene.TexAlpha)
				curMaterial.AlphaTex = tex
			}
			if err == nil {
				r.popFrame()
			}
		}

		if err != nil {
			return r.emitError(pathToFile, lineNum, "%s", err.Error())
		}
	}

	return scanner.Err()
}

// Given an index token for a face coord type (vertex, normal, tex)
// calculate the offset into the coord list. Wavefront format allows
// negative indices that reference elements from the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
