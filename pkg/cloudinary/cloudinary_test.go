package cloudinary

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildPublicID(t *testing.T) {
	at := time.Unix(1700000000, 0)

	cases := map[string]string{
		"Treaty Seal.PNG":         "treaty-seal-1700000000",
		"../maps/Europe 1648.jpg": "europe-1648-1700000000",
		"***.webp":                "task-image-1700000000",
		"abc123.gif":              "abc123-1700000000",
	}
	for name, want := range cases {
		require.Equal(t, want, buildPublicID(name, at), name)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo", APIKey: "key"}, zerolog.Nop())
	require.True(t, errors.Is(err, ErrNotConfigured))

	store, err := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "/evidence/tasks/"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "evidence/tasks", store.folder)
}
