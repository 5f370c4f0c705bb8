package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideAbsentVsEmptyString(t *testing.T) {
	var absent Override[string]
	assert.False(t, absent.IsSet())

	empty := Set("")
	assert.True(t, empty.IsSet(), "an explicit empty string is still present")

	v, ok := empty.Get()
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestOverrideClearRevertsToAbsent(t *testing.T) {
	o := Set("Pyrex Bowl")
	require.True(t, o.IsSet())

	o.Clear()
	assert.False(t, o.IsSet(), "reset must clear back to absent, not to empty string")
	assert.Equal(t, "derived", o.Or("derived"))
}

func TestOverrideJSON(t *testing.T) {
	type fields struct {
		Title Override[string]  `json:"title"`
		Price Override[float64] `json:"price"`
	}

	tests := []struct {
		name string
		in   fields
		want string
	}{
		{
			name: "absent marshals as null",
			in:   fields{},
			want: `{"title":null,"price":null}`,
		},
		{
			name: "present marshals as value",
			in:   fields{Title: Set("Hand Thrown Vase"), Price: Set(42.5)},
			want: `{"title":"Hand Thrown Vase","price":42.5}`,
		},
		{
			name: "present empty string survives",
			in:   fields{Title: Set("")},
			want: `{"title":"","price":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back fields
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.in, back)
		})
	}
}

func TestImageRefSelfContained(t *testing.T) {
	tests := []struct {
		name string
		ref  ImageRef
		want bool
	}{
		{"remote url", ImageRef{Kind: ImageURL, URL: "https://blobs.example.com/u/i/0"}, false},
		{"data uri", ImageRef{Kind: ImageDataURI, Data: "data:image/jpeg;base64,AAAA"}, true},
		{"blob", ImageRef{Kind: ImageBlob, Blob: []byte{0xff, 0xd8}}, true},
		{"local ref with bytes", ImageRef{Kind: ImageLocalRef, Blob: []byte{1}}, true},
		{"local ref without bytes", ImageRef{Kind: ImageLocalRef}, false},
		{"empty data uri", ImageRef{Kind: ImageDataURI}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ref.SelfContained())
		})
	}
}

func TestDecodeDataURI(t *testing.T) {
	data, mime, ok := DecodeDataURI("data:image/png;base64,aGVsbG8=")
	require.True(t, ok)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("hello"), data)

	// Bare base64 defaults to jpeg
	data, mime, ok = DecodeDataURI("aGVsbG8=")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte("hello"), data)

	_, _, ok = DecodeDataURI("data:image/png;base64")
	assert.False(t, ok)

	_, _, ok = DecodeDataURI("not base64!!!")
	assert.False(t, ok)
}
