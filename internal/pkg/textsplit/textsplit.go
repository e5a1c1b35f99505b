// Package textsplit splits extracted document text into overlapping chunks,
// the retrieval unit for embedding and search.
package textsplit

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// Split cuts text into chunks of at most size runes with the given overlap
// between consecutive chunks. Invalid parameters fall back to defaults;
// an overlap >= size is clamped to half the size.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 2
	}

	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
		i += size - overlap
	}
	return chunks
}
