// normalize.go — Canonical ordering of project state.
// Normalization is applied before revision hashing and before export so that
// semantically equal states are structurally identical.
package project

import (
	"math"
	"sort"
)

// BucketTime rounds a keyframe time onto the policy's precision grid.
func (p TimePolicy) BucketTime(t float64) float64 {
	precision := p.BucketPrecision
	if precision <= 0 {
		precision = DefaultTimePolicy().BucketPrecision
	}
	bucket := math.Round(t/precision) * precision
	// Snap float noise like 0.30000000000000004 back onto the grid.
	scale := math.Round(1 / precision)
	if scale > 0 {
		bucket = math.Round(bucket*scale) / scale
	}
	if bucket == 0 {
		return 0 // avoid -0
	}
	return bucket
}

// SameBucket reports whether two times identify the same keyframe slot.
func (p TimePolicy) SameBucket(a, b float64) bool {
	return p.BucketTime(a) == p.BucketTime(b) || math.Abs(a-b) <= p.TimeEpsilon
}

// Normalize sorts the state into canonical order in place:
// bones by parent-then-name, cubes by bone-then-name, textures by name,
// animations by name, channels by (bone, channel), keys by bucketed time,
// trigger keys by bucketed time. Duplicate key buckets merge last-write-wins.
func (s *State) Normalize() {
	if s.TimePolicy.BucketPrecision <= 0 {
		s.TimePolicy = DefaultTimePolicy()
	}
	policy := s.TimePolicy

	sort.SliceStable(s.Bones, func(i, j int) bool {
		if s.Bones[i].Parent != s.Bones[j].Parent {
			return s.Bones[i].Parent < s.Bones[j].Parent
		}
		return s.Bones[i].Name < s.Bones[j].Name
	})

	sort.SliceStable(s.Cubes, func(i, j int) bool {
		if s.Cubes[i].Bone != s.Cubes[j].Bone {
			return s.Cubes[i].Bone < s.Cubes[j].Bone
		}
		return s.Cubes[i].Name < s.Cubes[j].Name
	})

	sort.SliceStable(s.Textures, func(i, j int) bool {
		return s.Textures[i].Name < s.Textures[j].Name
	})

	sort.SliceStable(s.Animations, func(i, j int) bool {
		return s.Animations[i].Name < s.Animations[j].Name
	})

	for ai := range s.Animations {
		anim := &s.Animations[ai]
		sort.SliceStable(anim.Channels, func(i, j int) bool {
			if anim.Channels[i].Bone != anim.Channels[j].Bone {
				return anim.Channels[i].Bone < anim.Channels[j].Bone
			}
			return anim.Channels[i].Channel < anim.Channels[j].Channel
		})
		for ci := range anim.Channels {
			anim.Channels[ci].Keys = normalizeKeys(anim.Channels[ci].Keys, policy)
		}
		sort.SliceStable(anim.Triggers, func(i, j int) bool {
			return anim.Triggers[i].Type < anim.Triggers[j].Type
		})
		for ti := range anim.Triggers {
			anim.Triggers[ti].Keys = normalizeTriggerKeys(anim.Triggers[ti].Keys, policy)
		}
	}
}

// normalizeKeys buckets key times and merges keys that identify the same
// slot, keeping the last-written value, then sorts ascending. Two keys are
// the same slot when their buckets coincide or their raw times sit within
// TimeEpsilon of each other, so times straddling a bucket edge still
// collapse to one key.
func normalizeKeys(keys []Keyframe, policy TimePolicy) []Keyframe {
	if len(keys) == 0 {
		return keys
	}
	type slot struct {
		raw float64 // pre-bucket time of the last write
		key Keyframe
	}
	slots := make([]slot, 0, len(keys))
	for _, k := range keys {
		raw := k.Time
		k.Time = policy.BucketTime(raw)
		merged := false
		for i := range slots {
			if policy.SameBucket(slots[i].raw, raw) {
				slots[i] = slot{raw: raw, key: k}
				merged = true
				break
			}
		}
		if !merged {
			slots = append(slots, slot{raw: raw, key: k})
		}
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].key.Time < slots[j].key.Time })
	out := make([]Keyframe, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.key)
	}
	return out
}

func normalizeTriggerKeys(keys []TriggerKey, policy TimePolicy) []TriggerKey {
	if len(keys) == 0 {
		return keys
	}
	type slot struct {
		raw float64
		key TriggerKey
	}
	slots := make([]slot, 0, len(keys))
	for _, k := range keys {
		raw := k.Time
		k.Time = policy.BucketTime(raw)
		merged := false
		for i := range slots {
			if policy.SameBucket(slots[i].raw, raw) {
				slots[i] = slot{raw: raw, key: k}
				merged = true
				break
			}
		}
		if !merged {
			slots = append(slots, slot{raw: raw, key: k})
		}
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].key.Time < slots[j].key.Time })
	out := make([]TriggerKey, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.key)
	}
	return out
}
