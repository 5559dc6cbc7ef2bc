package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// PrettyJSON indents a JSON document. With color it is also syntax
// highlighted; a highlighting failure falls back to the indented text.
func PrettyJSON(data []byte, color bool) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return "", fmt.Errorf("decode json: %w", err)
	}
	out := buf.String()
	if !color {
		return out, nil
	}

	var hl strings.Builder
	if err := quick.Highlight(&hl, out, "json", "terminal256", "monokai"); err != nil {
		return out, nil
	}
	return strings.TrimRight(hl.String(), "\n"), nil
}

// Value renders an arbitrary decoded value: strings verbatim, everything else
// as indented JSON.
func Value(v any, color bool) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	out, err := PrettyJSON(data, color)
	if err != nil {
		return string(data)
	}
	return out
}
