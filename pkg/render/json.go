package render

import "encoding/json"

// RenderJSON returns the scene as indented JSON.
func RenderJSON(s *Scene) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
