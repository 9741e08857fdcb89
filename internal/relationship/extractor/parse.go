package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

// ParseSignals decodes model output into RawSignals. Markdown code fences
// are stripped and the outermost {...} is taken, so prose around the object
// is tolerated.
func ParseSignals(text string) (models.RawSignals, error) {
	body := stripFences(text)

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, apperrors.NewResponseParseFailedError(fmt.Errorf("no JSON object in response"))
	}

	var raw models.RawSignals
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil, apperrors.NewResponseParseFailedError(err)
	}
	return raw, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
