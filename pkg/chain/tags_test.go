package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrivate(t *testing.T) {
	c := newTestChain(t)

	for _, tag := range []string{"leech", "yaryna", "solia", "daryna"} {
		assert.True(t, c.IsPrivate(tag), tag)
	}
	for _, tag := range []string{"Solia", "verb", "", "leeches"} {
		assert.False(t, c.IsPrivate(tag), tag)
	}
}

func TestMergeTags(t *testing.T) {
	c := newTestChain(t)

	tests := []struct {
		name string
		src  []string
		dst  []string
		want []string
	}{
		{
			name: "fresh note takes only shared tags",
			src:  []string{"verb", "solia", "leech", "irregular"},
			dst:  nil,
			want: []string{"irregular", "verb"},
		},
		{
			name: "shared tags replaced not unioned",
			src:  []string{"b", "c"},
			dst:  []string{"a", "b"},
			want: []string{"b", "c"},
		},
		{
			name: "private tags of destination survive",
			src:  []string{"shared-x"},
			dst:  []string{"leech", "solia"},
			want: []string{"leech", "shared-x", "solia"},
		},
		{
			name: "private tags of source never leak",
			src:  []string{"daryna", "leech"},
			dst:  []string{"a"},
			want: []string{},
		},
		{
			name: "duplicates collapse",
			src:  []string{"x", "x"},
			dst:  []string{"solia", "solia"},
			want: []string{"solia", "x"},
		},
		{
			name: "both empty",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.MergeTags(tt.src, tt.dst))
		})
	}
}

func TestMergeTagsDoesNotModifyArguments(t *testing.T) {
	c := newTestChain(t)
	src := []string{"z", "a"}
	dst := []string{"solia", "m"}

	c.MergeTags(src, dst)

	assert.Equal(t, []string{"z", "a"}, src)
	assert.Equal(t, []string{"solia", "m"}, dst)
}

func TestMergeTagsProperties(t *testing.T) {
	c := newTestChain(t)
	cases := [][2][]string{
		{{"a", "yaryna", "b"}, {"c", "solia"}},
		{{"leech"}, {"leech", "x"}},
		{{"p", "q", "daryna"}, {}},
	}
	for _, tc := range cases {
		src, dst := tc[0], tc[1]
		got := c.MergeTags(src, dst)

		for _, tag := range got {
			if c.IsPrivate(tag) {
				assert.Contains(t, dst, tag, "private tag %q must come from dst", tag)
			} else {
				assert.Contains(t, src, tag, "shared tag %q must come from src", tag)
			}
		}
		assert.Equal(t, c.SharedTags(src), c.SharedTags(got))
		assert.Equal(t, got, c.MergeTags(src, dst), "merge is deterministic")
	}
}

func TestSharedTags(t *testing.T) {
	c := newTestChain(t)

	assert.Equal(t, []string{"a", "b"}, c.SharedTags([]string{"b", "leech", "a", "solia", "b"}))
	assert.Empty(t, c.SharedTags(nil))
	assert.True(t, c.SharedTagsEqual([]string{"b", "a", "solia"}, []string{"a", "b", "leech"}))
	assert.False(t, c.SharedTagsEqual([]string{"a"}, []string{"a", "b"}))
}
