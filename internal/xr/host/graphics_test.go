package host

import "testing"

func TestNewRenderTarget(t *testing.T) {
	opts := RenderTargetOptions{Format: FormatRGBA, Type: TypeUnsignedByte, Samples: 4}
	a := NewRenderTarget(1024, 512, opts)
	b := NewRenderTarget(1024, 512, opts)

	if a.Width != 1024 || a.Height != 512 {
		t.Errorf("expected 1024x512, got %dx%d", a.Width, a.Height)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Texture == nil || a.Texture.TextureID() == b.Texture.TextureID() {
		t.Error("expected each target to own a distinct color texture")
	}
	if a.IsXR {
		t.Error("new targets are not XR targets")
	}
}

func TestSessionEventType_IsInputEvent(t *testing.T) {
	tests := []struct {
		typ  SessionEventType
		want bool
	}{
		{EventSelect, true},
		{EventSelectStart, true},
		{EventSqueezeEnd, true},
		{EventEnd, false},
		{EventInputSourcesChange, false},
	}
	for _, tt := range tests {
		if got := tt.typ.IsInputEvent(); got != tt.want {
			t.Errorf("%s.IsInputEvent() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
