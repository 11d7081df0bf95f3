package gateway

import (
	"bytes"
	"encoding/json"
)

var assetKeys = []string{"image", "url", "imageUrl"}

// ExtractAssetURL finds the generated asset in a webhook response. The body
// may be an object or an array whose first element is an object; the asset
// is the first non-empty string among image, url and imageUrl.
func ExtractAssetURL(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var obj map[string]interface{}
	switch body[0] {
	case '{':
		if err := json.Unmarshal(body, &obj); err != nil {
			return ""
		}
	case '[':
		var arr []interface{}
		if err := json.Unmarshal(body, &arr); err != nil || len(arr) == 0 {
			return ""
		}
		first, ok := arr[0].(map[string]interface{})
		if !ok {
			return ""
		}
		obj = first
	default:
		return ""
	}

	for _, key := range assetKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
