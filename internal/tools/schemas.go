// schemas.go — JSON Schema documents for tool arguments.
// Every tool root object sets additionalProperties:false so misspelled
// arguments fail validation instead of being silently ignored. Mutating tools
// take ifRevision; every tool takes includeState/includeDiff for the response
// pipeline.
package tools

func schemaString() map[string]any  { return map[string]any{"type": "string"} }
func schemaNumber() map[string]any  { return map[string]any{"type": "number"} }
func schemaInteger() map[string]any { return map[string]any{"type": "integer"} }
func schemaBool() map[string]any    { return map[string]any{"type": "boolean"} }

func schemaVec3() map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    schemaNumber(),
		"minItems": 3,
		"maxItems": 3,
	}
}

func schemaNumberArray(n int) map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    schemaNumber(),
		"minItems": n,
		"maxItems": n,
	}
}

func schemaEnum(values ...string) map[string]any {
	opts := make([]any, len(values))
	for i, v := range values {
		opts[i] = v
	}
	return map[string]any{"type": "string", "enum": opts}
}

// schemaObject builds a closed object schema.
func schemaObject(props map[string]any, required ...string) map[string]any {
	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		doc["required"] = req
	}
	return doc
}

// toolSchema builds the root schema for a tool, adding the shared pipeline
// arguments and, for mutating tools, ifRevision.
func toolSchema(mutating bool, props map[string]any, required ...string) map[string]any {
	merged := map[string]any{
		"includeState": schemaBool(),
		"includeDiff":  schemaBool(),
	}
	if mutating {
		merged["ifRevision"] = schemaString()
	}
	for k, v := range props {
		merged[k] = v
	}
	return schemaObject(merged, required...)
}

func schemaFaces() map[string]any {
	return map[string]any{
		"type": "object",
		"additionalProperties": schemaObject(map[string]any{
			"uv":      schemaNumberArray(4),
			"texture": schemaString(),
		}),
	}
}

func schemaKeyframe() map[string]any {
	return schemaObject(map[string]any{
		"time":       schemaNumber(),
		"value":      schemaVec3(),
		"interp":     schemaString(),
		"easing":     schemaString(),
		"easingArgs": map[string]any{"type": "array", "items": schemaNumber()},
		"pre":        schemaVec3(),
		"post":       schemaVec3(),
	}, "time", "value")
}

func schemaKeyframes() map[string]any {
	return map[string]any{"type": "array", "items": schemaKeyframe()}
}

func schemaChannel() map[string]any {
	return schemaObject(map[string]any{
		"bone":    schemaString(),
		"channel": schemaEnum("rot", "pos", "scale"),
		"keys":    schemaKeyframes(),
	}, "bone", "channel", "keys")
}

func schemaTrigger() map[string]any {
	return schemaObject(map[string]any{
		"type": schemaEnum("sound", "particle", "timeline"),
		"keys": map[string]any{
			"type": "array",
			"items": schemaObject(map[string]any{
				"time":  schemaNumber(),
				"value": schemaString(),
			}, "time", "value"),
		},
	}, "type", "keys")
}

func schemaModelSpec() map[string]any {
	return schemaObject(map[string]any{
		"name":             schemaString(),
		"format":           schemaString(),
		"formatId":         schemaString(),
		"uvPixelsPerBlock": schemaInteger(),
		"bones": map[string]any{
			"type": "array",
			"items": schemaObject(map[string]any{
				"name":       schemaString(),
				"parent":     schemaString(),
				"pivot":      schemaVec3(),
				"rotation":   schemaVec3(),
				"scale":      schemaNumber(),
				"visibility": schemaBool(),
			}, "name"),
		},
		"cubes": map[string]any{
			"type": "array",
			"items": schemaObject(map[string]any{
				"name":    schemaString(),
				"bone":    schemaString(),
				"from":    schemaVec3(),
				"to":      schemaVec3(),
				"uv":      schemaNumberArray(2),
				"inflate": schemaNumber(),
				"mirror":  schemaBool(),
				"faces":   schemaFaces(),
			}, "name", "bone", "from", "to"),
		},
		"textures": map[string]any{
			"type": "array",
			"items": schemaObject(map[string]any{
				"name":        schemaString(),
				"width":       schemaInteger(),
				"height":      schemaInteger(),
				"contentHash": schemaString(),
			}, "name", "width", "height"),
		},
		"animations": map[string]any{
			"type": "array",
			"items": schemaObject(map[string]any{
				"name":     schemaString(),
				"length":   schemaNumber(),
				"loop":     schemaBool(),
				"fps":      schemaNumber(),
				"channels": map[string]any{"type": "array", "items": schemaChannel()},
				"triggers": map[string]any{"type": "array", "items": schemaTrigger()},
			}, "name", "length", "fps"),
		},
	})
}
