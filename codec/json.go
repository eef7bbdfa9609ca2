package codec

import "encoding/json"

// JSON is the standard-library JSON codec. Its output is byte-compatible
// with GoJSON for the metadata types used here.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }

// Default is the codec used for newly created containers.
var Default Codec = GoJSON{}
