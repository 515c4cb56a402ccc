package reader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/tonihW/raytracer-v2/scene"
	"github.com/tonihW/raytracer-v2/types"
)

// Load a glTF/GLB model into the scene. Triangle primitives only; points
// and lines are skipped.
func readGltfModel(pathToFile string, sc *scene.Scene) error {
	doc, err := gltf.Open(pathToFile)
	if err != nil {
		return fmt.Errorf("gltf: %v", err)
	}

	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := readGltfPrimitive(doc, pathToFile, prim, sc); err != nil {
				return fmt.Errorf("gltf: mesh %q: %v", mesh.Name, err)
			}
		}
	}

	return nil
}

// Convert one glTF primitive into scene triangles.
func readGltfPrimitive(doc *gltf.Document, pathToFile string, prim *gltf.Primitive, sc *scene.Scene) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}

	positions, err := readGltfVec3(doc, posIdx)
	if err != nil {
		return fmt.Errorf("read positions: %v", err)
	}

	var normals []types.Vec3
	if nrmIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = readGltfVec3(doc, nrmIdx); err != nil {
			return fmt.Errorf("read normals: %v", err)
		}
	}

	var uvs []types.Vec2
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = readGltfVec2(doc, uvIdx); err != nil {
			return fmt.Errorf("read uvs: %v", err)
		}
	}

	var indices []int
	if prim.Indices != nil {
		if indices, err = readGltfIndices(doc, *prim.Indices); err != nil {
			return fmt.Errorf("read indices: %v", err)
		}
	} else {
		indices = make([]int, len(positions))
		for i := range indices {
			indices[i] = i
		}
	}

	matName, err := readGltfMaterial(doc, pathToFile, prim.Material, sc)
	if err != nil {
		return err
	}

	vertexAt := func(i int) scene.Vertex {
		v := scene.Vertex{Pos: positions[i]}
		if i < len(normals) {
			v.Nrm = normals[i]
		}
		if i < len(uvs) {
			// glTF uses a top-left UV origin; flip V into the
			// bottom-left convention used by the sampler
			v.Tex = types.Vec2{uvs[i][0], 1.0 - uvs[i][1]}
		}
		return v
	}

	for i := 0; i+2 < len(indices); i += 3 {
		tri := &scene.Triangle{
			Vrt: [3]scene.Vertex{
				vertexAt(indices[i]),
				vertexAt(indices[i+1]),
				vertexAt(indices[i+2]),
			},
			MatName: matName,
		}

		// Generate a flat normal when the model provides none
		if len(normals) == 0 {
			e01 := tri.Vrt[1].Pos.Sub(tri.Vrt[0].Pos)
			e02 := tri.Vrt[2].Pos.Sub(tri.Vrt[0].Pos)
			faceNormal := e01.Cross(e02).Normalize()
			tri.Vrt[0].Nrm = faceNormal
			tri.Vrt[1].Nrm = faceNormal
			tri.Vrt[2].Nrm = faceNormal
		}

		sc.Shapes = append(sc.Shapes, tri)
	}

	return nil
}

// Register the referenced glTF material with the scene and return its
// name. The PBR parameters are mapped onto the renderer's reflectance
// model: base color becomes the diffuse term, the emissive factor maps
// directly.
func readGltfMaterial(doc *gltf.Document, pathToFile string, matIndex *int, sc *scene.Scene) (string, error) {
	if matIndex == nil || *matIndex >= len(doc.Materials) {
		return "", nil
	}

	gltfMat := doc.Materials[*matIndex]
	matName := gltfMat.Name
	if matName == "" {
		matName = fmt.Sprintf("gltf_material_%d", *matIndex)
	}
	if _, exists := sc.Materials[matName]; exists {
		return matName, nil
	}

	mat := &scene.Material{
		Name:    matName,
		Diffuse: types.Vec3{1.0, 1.0, 1.0},
		Emission: types.Vec3{
			float32(gltfMat.EmissiveFactor[0]),
			float32(gltfMat.EmissiveFactor[1]),
			float32(gltfMat.EmissiveFactor[2]),
		},
	}

	if pbr := gltfMat.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			mat.Diffuse = types.Vec3{
				float32(pbr.BaseColorFactor[0]),
				float32(pbr.BaseColorFactor[1]),
				float32(pbr.BaseColorFactor[2]),
			}
		}
		if pbr.BaseColorTexture != nil {
			tex, err := readGltfTexture(doc, pathToFile, pbr.BaseColorTexture.Index)
			if err != nil {
				return "", fmt.Errorf("material %q: %v", matName, err)
			}
			mat.DiffuseTex = tex
		}
	}

	sc.Materials[matName] = mat
	return matName, nil
}

// Decode a glTF texture from an embedded buffer view or an external image
// file next to the document.
func readGltfTexture(doc *gltf.Document, pathToFile string, texIndex int) (*scene.Texture, error) {
	if texIndex >= len(doc.Textures) || doc.Textures[texIndex].Source == nil {
		return nil, fmt.Errorf("texture %d has no image source", texIndex)
	}

	img := doc.Images[*doc.Textures[texIndex].Source]
	var data []byte
	if img.BufferView != nil {
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		if buf.Data == nil {
			return nil, fmt.Errorf("image buffer has no data")
		}
		data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
	} else if img.URI != "" {
		var err error
		if data, err = os.ReadFile(filepath.Join(filepath.Dir(pathToFile), img.URI)); err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("image has neither buffer view nor URI")
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode texture image: %v", err)
	}

	return textureFromImage(decoded, scene.TexDiffuse), nil
}

// Read a VEC3 float accessor.
func readGltfVec3(doc *gltf.Document, accessorIdx int) ([]types.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3 accessor; got %v", accessor.Type)
	}

	data, stride, err := gltfAccessorData(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	out := make([]types.Vec3, accessor.Count)
	for i := 0; i < accessor.Count; i++ {
		offset := i * stride
		out[i] = types.Vec3{
			gltfFloat32(data[offset:]),
			gltfFloat32(data[offset+4:]),
			gltfFloat32(data[offset+8:]),
		}
	}
	return out, nil
}

// Read a VEC2 float accessor.
func readGltfVec2(doc *gltf.Document, accessorIdx int) ([]types.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2 accessor; got %v", accessor.Type)
	}

	data, stride, err := gltfAccessorData(doc, accessor, 8)
	if err != nil {
		return nil, err
	}

	out := make([]types.Vec2, accessor.Count)
	for i := 0; i < accessor.Count; i++ {
		offset := i * stride
		out[i] = types.Vec2{
			gltfFloat32(data[offset:]),
			gltfFloat32(data[offset+4:]),
		}
	}
	return out, nil
}

// Read a scalar index accessor (ubyte/ushort/uint component types).
func readGltfIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR accessor; got %v", accessor.Type)
	}

	var compSize int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		compSize = 1
	case gltf.ComponentUshort:
		compSize = 2
	case gltf.ComponentUint:
		compSize = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", accessor.ComponentType)
	}

	data, stride, err := gltfAccessorData(doc, accessor, compSize)
	if err != nil {
		return nil, err
	}

	out := make([]int, accessor.Count)
	for i := 0; i < accessor.Count; i++ {
		offset := i * stride
		switch compSize {
		case 1:
			out[i] = int(data[offset])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(data[offset:]))
		case 4:
			out[i] = int(binary.LittleEndian.Uint32(data[offset:]))
		}
	}
	return out, nil
}

// Resolve the raw byte window and element stride for an accessor.
func gltfAccessorData(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]
	if buffer.Data == nil {
		return nil, 0, fmt.Errorf("buffer has no data; external buffers are not supported")
	}

	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	end := start + (accessor.Count-1)*stride + elemSize
	if end > len(buffer.Data) {
		return nil, 0, fmt.Errorf("accessor window exceeds buffer size")
	}

	return buffer.Data[start:end], stride, nil
}

// Read a little-endian float32.
func gltfFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
