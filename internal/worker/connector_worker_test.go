package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ragstack/internal/model"
)

func TestMatchesFilters(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		filters model.ConnectorFilters
		want    bool
	}{
		{
			name:    "no filters allows everything",
			key:     "docs/readme.md",
			filters: model.ConnectorFilters{},
			want:    true,
		},
		{
			name: "exclude pattern wins",
			key:  "docs/draft-notes.md",
			filters: model.ConnectorFilters{
				IncludePatterns: []string{"*.md"},
				ExcludePatterns: []string{"draft-*"},
			},
			want: false,
		},
		{
			name: "include pattern matches base name",
			key:  "reports/2025/q3.pdf",
			filters: model.ConnectorFilters{
				IncludePatterns: []string{"*.pdf"},
			},
			want: true,
		},
		{
			name: "include pattern rejects non-matching",
			key:  "reports/2025/q3.csv",
			filters: model.ConnectorFilters{
				IncludePatterns: []string{"*.pdf"},
			},
			want: false,
		},
		{
			name: "folder path matches prefix",
			key:  "shared/manuals/setup.txt",
			filters: model.ConnectorFilters{
				FolderPaths: []string{"shared/manuals"},
			},
			want: true,
		},
		{
			name: "folder path with leading slash",
			key:  "shared/manuals/setup.txt",
			filters: model.ConnectorFilters{
				FolderPaths: []string{"/shared/manuals"},
			},
			want: true,
		},
		{
			name: "folder path rejects other prefix",
			key:  "private/setup.txt",
			filters: model.ConnectorFilters{
				FolderPaths: []string{"shared/manuals"},
			},
			want: false,
		},
		{
			name: "include or folder is enough",
			key:  "private/spec.pdf",
			filters: model.ConnectorFilters{
				IncludePatterns: []string{"*.pdf"},
				FolderPaths:     []string{"shared/"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesFilters(tt.key, tt.filters))
		})
	}
}

func TestChecksumOf(t *testing.T) {
	a := checksumOf([]byte("hello"))
	b := checksumOf([]byte("hello"))
	c := checksumOf([]byte("hello!"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
	// Known SHA-256 of "hello".
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", a)
}
