package notification

// mergeParams resolves the parameter map for a render. Only keys declared in
// defaults are rendered: a trigger value wins, then the example when it is
// flagged as default, then the empty string.
func mergeParams(defaults map[string]ParamDefault, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(defaults))
	for key, def := range defaults {
		if val, ok := overrides[key]; ok {
			out[key] = val
			continue
		}

		if def.UseAsDefault {
			out[key] = def.Example
			continue
		}

		out[key] = ""
	}
	return out
}
