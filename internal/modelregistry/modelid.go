package modelregistry

import "strings"

// NormalizeModelID maps a possibly-bare model name to a fully-qualified
// "<provider>:<name>" id. Already-qualified ids (known cloud provider
// prefix) are returned unchanged. An id with a colon whose prefix is not a
// known cloud provider is treated as an Ollama tag (e.g. "foo:bar" becomes
// "ollama:foo:bar"), since Ollama tags can themselves look like
// "name:tag" and must not be misread as "<provider>:<name>".
func NormalizeModelID(raw string, defaultProvider Provider) string {
	if raw == "" {
		return raw
	}

	if idx := strings.Index(raw, ":"); idx >= 0 {
		prefix := Provider(raw[:idx])
		if prefix == Ollama || CloudProviders[prefix] || prefix == HuggingFace {
			return raw
		}
		return string(Ollama) + ":" + raw
	}

	return string(defaultProvider) + ":" + raw
}

// SplitModelID splits a fully-qualified model id into provider and name.
// The name may itself contain colons (Ollama tags), so only the first
// segment is treated as the provider.
func SplitModelID(id string) (Provider, string) {
	idx := strings.Index(id, ":")
	if idx < 0 {
		return "", id
	}
	return Provider(id[:idx]), id[idx+1:]
}
