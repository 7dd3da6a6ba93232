package conversation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/counsel-agent/internal/app/conversation"
)

func TestIsDisplayableImage(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1/photo.jpg", true},
		{"https://cdn.example.com/a/B.PNG", true},
		{"https://cdn.example.com/logo.svg?v=3", true},
		{"https://cdn.example.com/anim.webp", true},
		{"http://cdn.example.com/photo.jpg", false},
		{"https://cdn.example.com/track.mp3", false},
		{"https://cdn.example.com/photo", false},
		{"ftp://cdn.example.com/photo.png", false},
		{"not a url", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, conversation.IsDisplayableImage(tt.url))
		})
	}
}
