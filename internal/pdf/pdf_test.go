package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange_Empty(t *testing.T) {
	pages, err := ParsePageRange("")
	require.NoError(t, err)
	assert.Nil(t, pages)

	pages, err = ParsePageRange("   ")
	require.NoError(t, err)
	assert.Nil(t, pages)
}

func TestParsePageRange_Single(t *testing.T) {
	pages, err := ParsePageRange("3")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, pages)
}

func TestParsePageRange_Range(t *testing.T) {
	pages, err := ParsePageRange("1-4")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, pages)
}

func TestParsePageRange_Mixed(t *testing.T) {
	pages, err := ParsePageRange("1-3,7")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 7}, pages)
}

func TestParsePageRange_DeduplicatesAndSorts(t *testing.T) {
	pages, err := ParsePageRange("7,1-3,2,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 7}, pages)
}

func TestParsePageRange_Whitespace(t *testing.T) {
	pages, err := ParsePageRange(" 2 , 4 - 5 ")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 5}, pages)
}

func TestParsePageRange_Invalid(t *testing.T) {
	cases := []string{"abc", "0", "-1", "3-1", "1,,2", "1-", "0-3"}
	for _, tc := range cases {
		_, err := ParsePageRange(tc)
		assert.Error(t, err, "expected error for %q", tc)
	}
}

func TestPageFromFilename(t *testing.T) {
	page, err := pageFromFilename("page_3_image_1.png")
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	page, err = pageFromFilename("page_12_Im0.jpg")
	require.NoError(t, err)
	assert.Equal(t, 12, page)
}

func TestPageFromFilename_Invalid(t *testing.T) {
	for _, name := range []string{"image_1.png", "page_x_1.png", "readme.txt"} {
		_, err := pageFromFilename(name)
		assert.Error(t, err, "expected error for %q", name)
	}
}

func TestDocumentResult_PageCount(t *testing.T) {
	doc := DocumentResult{
		Pages: []PageResult{
			{Page: 1, ImageIndex: 0},
			{Page: 1, ImageIndex: 1},
			{Page: 3, ImageIndex: 0},
		},
	}
	assert.Len(t, doc.pageCount(), 2)
}
