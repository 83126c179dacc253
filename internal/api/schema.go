package api

import (
	"encoding/json"
	"net/http"

	"github.com/invopop/jsonschema"
)

// needResponseShape documents the shape returned by GET .../need.
type needResponseShape struct {
	Need []struct {
		FPos uint64 `json:"fpos"`
		Len  uint64 `json:"len"`
	} `json:"need"`
}

// statResponseShape mirrors svfs.Stat's JSON shape for client codegen.
type statResponseShape struct {
	ID               string   `json:"ID"`
	FileModTime      float64  `json:"FileModTime"`
	CountWrite       uint64   `json:"CountWrite"`
	CountRead        uint64   `json:"CountRead"`
	BytesWrite       uint64   `json:"BytesWrite"`
	BytesRead        uint64   `json:"BytesRead"`
	NumBlocks        int      `json:"NumBlocks"`
	NumBytes         uint64   `json:"NumBytes"`
	LastFilePosition uint64   `json:"LastFilePosition"`
	SizeOf           uint64   `json:"SizeOf"`
	TimeWrite        *float64 `json:"TimeWrite,omitempty"`
	TimeRead         *float64 `json:"TimeRead,omitempty"`
}

type schemaDocument struct {
	Need *jsonschema.Schema `json:"need_response"`
	Stat *jsonschema.Schema `json:"stat_response"`
}

// schemaHandler serves GET /v1/schema: a generated JSON Schema for the
// need/stat response shapes, for client codegen, grounded in the
// teacher's use of invopop/jsonschema for its own config schema command
// (cmd/dfs/commands/config/schema.go).
func schemaHandler(w http.ResponseWriter, r *http.Request) {
	reflector := jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}

	doc := schemaDocument{
		Need: reflector.Reflect(&needResponseShape{}),
		Stat: reflector.Reflect(&statResponseShape{}),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}
