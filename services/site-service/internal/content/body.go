package content

import (
	"encoding/json"
	"fmt"

	"github.com/claryon/claryon-site/services/site-service/internal/model"
)

type markdownBody struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// EncodeBody wraps editor text in the stored body envelope.
func EncodeBody(contentType, text string) (json.RawMessage, error) {
	switch contentType {
	case "", model.BodyMarkdown:
		return json.Marshal(markdownBody{Type: model.BodyMarkdown, Text: text})
	case model.BodyHTML:
		return json.Marshal(text)
	default:
		return nil, fmt.Errorf("unsupported body content type %q", contentType)
	}
}

// BodyText extracts editable text from a stored body, whatever shape it has.
func BodyText(body json.RawMessage) string {
	if len(body) == 0 {
		return ""
	}
	var md markdownBody
	if err := json.Unmarshal(body, &md); err == nil && md.Type != "" {
		return md.Text
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	return string(body)
}
