package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument("some parsed content here", "file.txt")
	require.NoError(t, err)

	assert.Equal(t, "some parsed content here", doc.Content)
	assert.Equal(t, "file.txt", doc.Source)
	assert.Equal(t, 4, doc.WordCount)
}

func TestNewDocumentEmptyContent(t *testing.T) {
	_, err := NewDocument("", "file.txt")
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = NewDocument("   \n\t  ", "file.txt")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
