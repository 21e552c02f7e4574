package application

// ResolveProductMapping returns the LearnWorlds product mapped to the first
// candidate present in mapping. Candidates are tried in the given order and
// compared by exact string equality.
func ResolveProductMapping(candidates []string, mapping map[string]string) (productID string, identifier string, ok bool) {
	for _, candidate := range candidates {
		if mapped, found := mapping[candidate]; found {
			return mapped, candidate, true
		}
	}
	return "", "", false
}
