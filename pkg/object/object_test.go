// pkg/object/object_test.go

package object

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, s ObjectStorage, key string, off, limit int64) string {
	r, err := s.Get(key, off, limit)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func testStorage(t *testing.T, s ObjectStorage) {
	require.NoError(t, s.Create())
	_, err := s.Get("missing", 0, -1)
	assert.True(t, errors.Is(err, ErrNotFound), "%s: %v", s, err)

	require.NoError(t, s.Put("dir/obj", strings.NewReader("hello world")))
	assert.Equal(t, "hello world", get(t, s, "dir/obj", 0, -1))
	assert.Equal(t, "world", get(t, s, "dir/obj", 6, -1))
	assert.Equal(t, "lo w", get(t, s, "dir/obj", 3, 4))

	require.NoError(t, s.Put("dir/obj", strings.NewReader("replaced")))
	assert.Equal(t, "replaced", get(t, s, "dir/obj", 0, -1))

	require.NoError(t, s.Delete("dir/obj"))
	require.NoError(t, s.Delete("dir/obj"))
	_, err = s.Get("dir/obj", 0, -1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDiskStore(t *testing.T) {
	s, err := CreateStorage("file", filepath.Join(t.TempDir(), "objects"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.String(), "file://"))
	testStorage(t, s)

	assert.Error(t, s.Put("../escape", strings.NewReader("x")))
	_, err = CreateStorage("file", "")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open("redis://" + mr.Addr() + "/2")
	require.NoError(t, err)
	assert.Equal(t, "redis://"+mr.Addr()+"/2/", s.String())
	testStorage(t, s)

	require.NoError(t, s.Put("k", strings.NewReader("v")))
	mr.Select(2)
	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, err = Open("redis://localhost:6379/notanumber")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, uri := range []string{dir, "file://" + dir} {
		s, err := Open(uri)
		require.NoError(t, err)
		assert.Equal(t, "file://"+dir+"/", s.String())
	}
	_, err := Open("s3://bucket")
	assert.Error(t, err)
	assert.Contains(t, Schemes(), "file")
	assert.Contains(t, Schemes(), "redis")
}

func newKey(t *testing.T) *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestEncryptors(t *testing.T) {
	key := newKey(t)
	plain := bytes.Repeat([]byte("secret "), 1000)
	for name, enc := range map[string]Encryptor{
		"aes":        NewAESEncryptor(NewRSAEncryptor(key)),
		"passphrase": NewPassphraseEncryptor("correct horse"),
	} {
		sealed, err := enc.Encrypt(plain)
		require.NoError(t, err, name)
		assert.NotContains(t, string(sealed), "secret", name)
		opened, err := enc.Decrypt(sealed)
		require.NoError(t, err, name)
		assert.Equal(t, plain, opened, name)

		sealed[len(sealed)-1] ^= 1
		_, err = enc.Decrypt(sealed)
		assert.Error(t, err, name)
		_, err = enc.Decrypt(sealed[:2])
		assert.Error(t, err, name)
	}

	sealed, err := NewPassphraseEncryptor("a").Encrypt(plain)
	require.NoError(t, err)
	_, err = NewPassphraseEncryptor("b").Decrypt(sealed)
	assert.Error(t, err)
}

func TestRsaPem(t *testing.T) {
	key := newKey(t)
	for _, pass := range []string{"", "pw"} {
		pemText, err := ExportRsaPrivateKeyToPem(key, pass)
		require.NoError(t, err)
		parsed, err := ParseRsaPrivateKeyFromPem(pemText, pass)
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	}
	pemText, err := ExportRsaPrivateKeyToPem(key, "pw")
	require.NoError(t, err)
	_, err = ParseRsaPrivateKeyFromPem(pemText, "")
	assert.Error(t, err)
	_, err = ParseRsaPrivateKeyFromPem(pemText, "wrong")
	assert.Error(t, err)
	_, err = ParseRsaPrivateKeyFromPem("not pem", "")
	assert.Error(t, err)
}

func TestDecorators(t *testing.T) {
	base, err := CreateStorage("file", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, base.Create())

	enc := NewEncrypted(base, NewPassphraseEncryptor("pw"))
	assert.Contains(t, enc.String(), "(encrypted)")
	require.NoError(t, enc.Put("obj", strings.NewReader("top secret data")))
	assert.NotContains(t, get(t, base, "obj", 0, -1), "top secret")
	assert.Equal(t, "secret", get(t, enc, "obj", 4, 6))

	limited := NewLimited(base, 1<<20, 1<<20)
	assert.Contains(t, limited.String(), "(limited)")
	require.NoError(t, limited.Put("plain", strings.NewReader("abc")))
	assert.Equal(t, "abc", get(t, limited, "plain", 0, -1))
	_, err = limited.Get("missing", 0, -1)
	assert.Error(t, err)

	c := NewCached(base, 1<<20)
	assert.Equal(t, "bc", get(t, c, "plain", 1, -1))
	require.NoError(t, base.Put("plain", strings.NewReader("changed behind the cache")))
	assert.Equal(t, "abc", get(t, c, "plain", 0, -1))
	require.NoError(t, c.Put("plain", strings.NewReader("xyz")))
	assert.Equal(t, "xyz", get(t, c, "plain", 0, 10))
	require.NoError(t, c.Delete("plain"))
	_, err = c.Get("plain", 0, -1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLimitedThrottles(t *testing.T) {
	base, err := CreateStorage("file", t.TempDir())
	require.NoError(t, err)
	limited := NewLimited(base, 4<<10, 0)
	start := time.Now()
	require.NoError(t, limited.Put("big", bytes.NewReader(make([]byte, 12<<10))))
	assert.Greater(t, time.Since(start), 500*time.Millisecond)
}

func TestWriter(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open("redis://" + mr.Addr())
	require.NoError(t, err)

	w := NewWriter(s, "out")
	_, err = w.Write([]byte("part1 "))
	require.NoError(t, err)
	_, err = w.Write([]byte("part2"))
	require.NoError(t, err)
	_, err = s.Get("out", 0, -1)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, "part1 part2", get(t, s, "out", 0, -1))
	_, err = w.Write([]byte("late"))
	assert.Error(t, err)

	mr.Close()
	w = NewWriter(s, "other")
	assert.Error(t, w.Close())
}

func TestEncryptStage(t *testing.T) {
	enc := NewPassphraseEncryptor("pw")
	seal := NewEncryptStage(enc)
	var sealed []byte
	for _, block := range []string{"first block ", "", "second block"} {
		out, err := seal.Encode([]byte(block), false)
		require.NoError(t, err)
		sealed = append(sealed, out...)
	}
	tail, err := seal.Encode(nil, true)
	require.NoError(t, err)
	assert.Empty(t, tail)

	for _, size := range []int{1, 7, 64, 10000} {
		open := NewDecryptStage(enc)
		var plain []byte
		for off := 0; off < len(sealed); off += size {
			out, err := open.Encode(sealed[off:min(off+size, len(sealed))], false)
			require.NoError(t, err)
			plain = append(plain, out...)
		}
		out, err := open.Encode(nil, true)
		require.NoError(t, err)
		assert.Equal(t, "first block second block", string(append(plain, out...)))
	}

	_, err = NewDecryptStage(enc).Encode(sealed[:10], true)
	assert.Error(t, err)
}
