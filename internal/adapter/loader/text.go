package loader

// Plain text and markdown are treated as single-page documents.
func extractText(data []byte) ([]string, error) {
	return []string{string(data)}, nil
}
