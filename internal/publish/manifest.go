package publish

import (
	"encoding/json"
	"time"
)

// Manifest is stamped into each release directory so a remote release is
// traceable back to the source revision it was built from.
type Manifest struct {
	Release   string    `json:"release"`
	CreatedAt time.Time `json:"created_at"`
	Commit    string    `json:"commit,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	Tool      string    `json:"tool"`
}

// Encode renders the manifest as indented JSON.
func (m Manifest) Encode() ([]byte, error) {
	if m.Tool == "" {
		m.Tool = "docship"
	}
	return json.MarshalIndent(m, "", "  ")
}

// DecodeManifest parses a manifest written by Encode.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	err := json.Unmarshal(data, &m)
	return m, err
}
