package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/alecthomas/assert/v2"

	"github.com/cashapp/bootstrap/internal/dao"
)

func TestListReceipts(t *testing.T) {
	receipts := []*dao.Receipt{
		{
			Name:     "openssl",
			Source:   "https://www.openssl.org/source/openssl-1.1.1w.tar.gz",
			Prefix:   "/opt/deps",
			Platform: "linux_x86_64",
			BuiltAt:  time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC),
			Duration: 90 * time.Second,
		},
		{
			Name:     "zlib",
			Source:   "https://zlib.net/zlib-1.2.13.tar.gz",
			Prefix:   "/opt/deps",
			Platform: "linux_x86_64",
			Flags:    []string{"--static", "--64"},
			BuiltAt:  time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC),
			Duration: 3 * time.Second,
		},
	}

	t.Run("short", func(t *testing.T) {
		w := &bytes.Buffer{}
		err := listReceipts(w, receipts, true, false)
		assert.NoError(t, err)
		assert.Equal(t, "openssl\nzlib\n", w.String())
	})

	t.Run("long", func(t *testing.T) {
		w := &bytes.Buffer{}
		err := listReceipts(w, receipts, false, false)
		assert.NoError(t, err)
		out := stripansi.Strip(w.String())
		assert.Contains(t, out, "zlib (linux_x86_64) -> /opt/deps")
		assert.Contains(t, out, "  https://zlib.net/zlib-1.2.13.tar.gz\n")
		assert.Contains(t, out, "  flags: --static --64\n")
		assert.Contains(t, out, " in 1m30s\n")
	})

	t.Run("json", func(t *testing.T) {
		w := &bytes.Buffer{}
		err := listReceipts(w, receipts, false, true)
		assert.NoError(t, err)
		var decoded []*dao.Receipt
		err = json.Unmarshal(w.Bytes(), &decoded)
		assert.NoError(t, err)
		assert.Equal(t, 2, len(decoded))
		assert.Equal(t, "zlib", decoded[1].Name)
		assert.Equal(t, []string{"--static", "--64"}, decoded[1].Flags)
	})

	t.Run("empty json", func(t *testing.T) {
		w := &bytes.Buffer{}
		err := listReceipts(w, nil, false, true)
		assert.NoError(t, err)
		assert.Equal(t, "[]\n", w.String())
	})
}
