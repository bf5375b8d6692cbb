package textutil_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/shapematch/pkg/textutil"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	late := bytes.Repeat([]byte{'a'}, textutil.BinarySniffLength+10)
	late[textutil.BinarySniffLength+5] = 0

	edge := bytes.Repeat([]byte{'a'}, textutil.BinarySniffLength)
	edge[textutil.BinarySniffLength-1] = 0

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "nil", data: nil, want: false},
		{name: "python", data: []byte("total = 0\nfor x in xs:\n    total += x\n"), want: false},
		{name: "nul in middle", data: []byte("x = 1\x00"), want: true},
		{name: "nul at start", data: []byte("\x00x = 1"), want: true},
		{name: "nul at last sniffed byte", data: edge, want: true},
		{name: "nul past sniff window", data: late, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, textutil.IsBinary(tt.data))
		})
	}
}

func TestStripBOM(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte("x = 1\n"), textutil.StripBOM([]byte("\xEF\xBB\xBFx = 1\n")))
	assert.Equal(t, []byte("x = 1\n"), textutil.StripBOM([]byte("x = 1\n")))
	assert.Empty(t, textutil.StripBOM(nil))
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"":                0,
		"\n":              1,
		"x = 1":           1,
		"x = 1\n":         1,
		"x = 1\ny = 2":    2,
		"x = 1\n\ny = 2\n": 3,
	}

	for input, want := range tests {
		assert.Equal(t, want, textutil.CountLines([]byte(input)), "%q", input)
	}
}
