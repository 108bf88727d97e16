package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyer(t *testing.T) {
	k := NewKeyer("app")

	key, ok := k.Key(&Options{Identifier: "users", Query: "SELECT 1"})
	assert.True(t, ok)
	assert.Equal(t, "app:id:users", key)

	key, ok = k.Key(&Options{Query: "SELECT 1"})
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(key, "app:query:"))
	assert.Len(t, strings.TrimPrefix(key, "app:query:"), 16)
	assert.Equal(t, key, k.Query("SELECT 1"))
	assert.NotEqual(t, key, k.Query("SELECT 2"))

	_, ok = k.Key(&Options{})
	assert.False(t, ok)
	assert.False(t, (&Options{Result: "r"}).HasKey())
	assert.True(t, (&Options{Query: "SELECT 1"}).HasKey())
}

func TestCodecFor(t *testing.T) {
	for _, name := range []string{"", CodecJSON, CodecMsgpack} {
		codec, err := CodecFor(name)
		assert.NoError(t, err)
		assert.NotNil(t, codec)
	}

	_, err := CodecFor("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestJSONCodec_WireFormat(t *testing.T) {
	codec, _ := CodecFor(CodecJSON)

	data, err := codec.Marshal(&Options{Query: "Q", Time: 10, Duration: 20, Result: []int{1}})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"query":"Q","time":10,"duration":20,"result":[1]}`, string(data))
}
