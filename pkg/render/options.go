package render

// RenderOptions describe per-call switches renderers can honour without
// touching the snapshot itself.
type RenderOptions struct {
	// OmitPlaceholders renders empty text fields as empty instead of the
	// "Your Name"-style placeholder copy.
	OmitPlaceholders bool
}

// Text returns value, or placeholder when value is blank and placeholders
// are enabled.
func (o RenderOptions) Text(value, placeholder string) string {
	if value != "" || o.OmitPlaceholders {
		return value
	}
	return placeholder
}
