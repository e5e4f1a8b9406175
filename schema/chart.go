package schema

// ChartSpec is a renderable chart option (title, axes, series), kept as free-form JSON.
type ChartSpec map[string]any

// Title returns title.text when present.
func (c ChartSpec) Title() string {
	title, ok := c["title"].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := title["text"].(string)
	return text
}

// ParseCharts decodes a chart_objects payload. The payload may be a single object or
// an array of objects, optionally fenced. Empty, "{}" or undecodable payloads yield nil.
func ParseCharts(payload string) []ChartSpec {
	var decoded any
	if err := DecodeFenced(payload, &decoded); err != nil {
		return nil
	}

	switch v := decoded.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return []ChartSpec{ChartSpec(v)}
	case []any:
		var charts []ChartSpec
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok && len(obj) > 0 {
				charts = append(charts, ChartSpec(obj))
			}
		}
		return charts
	default:
		return nil
	}
}
