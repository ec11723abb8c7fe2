// usage.go — Derived texture usage mapping.
// Answers "which cube faces reference which texture" plus an identity digest
// so clients can cheaply detect UV layout changes.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// FaceUsage records one cube face referencing a texture.
type FaceUsage struct {
	CubeID   string      `json:"cubeId,omitempty"`
	CubeName string      `json:"cubeName"`
	Face     string      `json:"face"`
	UV       *[4]float64 `json:"uv,omitempty"`
}

// TextureUsage is the full derived mapping for one snapshot.
type TextureUsage struct {
	ByTexture  map[string][]FaceUsage `json:"byTexture"`
	Unresolved []FaceUsage            `json:"unresolved,omitempty"`
	UVUsageID  string                 `json:"uvUsageId"`
}

// ComputeTextureUsage walks every cube face and groups references by texture
// key. Faces naming a texture that does not exist land in Unresolved. The
// UVUsageID digests the normalized mapping plus the project id, so the same
// layout in the same project always produces the same id.
func ComputeTextureUsage(s *State) *TextureUsage {
	usage := &TextureUsage{ByTexture: make(map[string][]FaceUsage)}
	if s == nil {
		usage.UVUsageID = "uv-empty"
		return usage
	}

	known := make(map[string]bool, len(s.Textures))
	for i := range s.Textures {
		known[s.Textures[i].Name] = true
	}

	for i := range s.Cubes {
		cube := &s.Cubes[i]
		faceNames := make([]string, 0, len(cube.Faces))
		for face := range cube.Faces {
			faceNames = append(faceNames, face)
		}
		sort.Strings(faceNames)
		for _, face := range faceNames {
			f := cube.Faces[face]
			entry := FaceUsage{CubeID: cube.ID, CubeName: cube.Name, Face: face, UV: f.UV}
			if f.Texture == "" {
				continue
			}
			if known[f.Texture] {
				usage.ByTexture[f.Texture] = append(usage.ByTexture[f.Texture], entry)
			} else {
				usage.Unresolved = append(usage.Unresolved, entry)
			}
		}
	}

	for key := range usage.ByTexture {
		entries := usage.ByTexture[key]
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].CubeName != entries[j].CubeName {
				return entries[i].CubeName < entries[j].CubeName
			}
			return entries[i].Face < entries[j].Face
		})
		usage.ByTexture[key] = entries
	}
	sort.SliceStable(usage.Unresolved, func(i, j int) bool {
		if usage.Unresolved[i].CubeName != usage.Unresolved[j].CubeName {
			return usage.Unresolved[i].CubeName < usage.Unresolved[j].CubeName
		}
		return usage.Unresolved[i].Face < usage.Unresolved[j].Face
	})

	usage.UVUsageID = usageDigest(s.ID, usage)
	return usage
}

func usageDigest(projectID string, usage *TextureUsage) string {
	payload := struct {
		Project    string                 `json:"project"`
		ByTexture  map[string][]FaceUsage `json:"byTexture"`
		Unresolved []FaceUsage            `json:"unresolved,omitempty"`
	}{Project: projectID, ByTexture: usage.ByTexture, Unresolved: usage.Unresolved}
	data, err := json.Marshal(payload)
	if err != nil {
		return "uv-unhashable"
	}
	sum := sha256.Sum256(data)
	return "uv" + hex.EncodeToString(sum[:])[:16]
}
