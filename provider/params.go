package provider

// Generation parameters arrive as a loosely typed map (tool definitions
// store them as JSON). These helpers pull out the values the cloud
// providers need, tolerating the numeric types JSON decoding produces.

func floatParam(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func intParam(params map[string]any, key string) (int64, bool) {
	if f, ok := floatParam(params, key); ok {
		return int64(f), true
	}
	return 0, false
}
