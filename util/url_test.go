package util

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestURLBase(t *testing.T) {
	u, err := ParseURL("http://host/pub/pkg-1.0.tar.gz?mirror=1")
	assert.NoError(t, err)
	assert.Equal(t, "pkg-1.0.tar.gz", u.Base())
	assert.Equal(t, "http", u.Scheme())

	u, err = ParseURL("https://host/")
	assert.NoError(t, err)
	assert.Equal(t, "", u.Base())
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"https://github.com/fastogt/common.git", "common"},
		{"https://github.com/fastogt/common", "common"},
		{"git@github.com:fastogt/libev.git", "libev"},
		{"git@github.com:libev.git", "libev"},
		{"https://example.com/repo.git/", "repo"},
		{"/srv/git/repo.v2.git", "repo.v2"},
	}
	for _, test := range tests {
		t.Run(test.uri, func(t *testing.T) {
			assert.Equal(t, test.expected, BaseName(test.uri))
		})
	}
}
