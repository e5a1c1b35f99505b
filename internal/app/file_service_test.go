package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilenameAllowed(t *testing.T) {
	mime, err := ValidateFilename("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)

	mime, err = ValidateFilename("NOTES.MD")
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", mime)

	_, err = ValidateFilename("slides.pptx")
	assert.NoError(t, err)
}

func TestValidateFilenameRejected(t *testing.T) {
	for _, name := range []string{"malware.exe", "archive.zip", "photo.png", "noextension", "script.sh"} {
		_, err := ValidateFilename(name)
		assert.ErrorIs(t, err, ErrUnsupportedFile, name)
	}
}

func TestSupportedFile(t *testing.T) {
	assert.True(t, SupportedFile("docs/folder/manual.pdf"))
	assert.False(t, SupportedFile("docs/folder/image.jpg"))
}

func TestObjectKeyLayout(t *testing.T) {
	key := ObjectKey("tenant-1", "coll-1", "manual.pdf")
	assert.True(t, strings.HasPrefix(key, "tenant-1/coll-1/"))
	assert.True(t, strings.HasSuffix(key, "_manual.pdf"))

	// keys are unique per call, so two ingests of the same filename never collide
	assert.NotEqual(t, key, ObjectKey("tenant-1", "coll-1", "manual.pdf"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_report.pdf", SanitizeFilename("my report.pdf"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "file", SanitizeFilename("???"))
	assert.Equal(t, "data-v2.csv", SanitizeFilename("data-v2.csv"))
}
