package ocr

// InputOption mutates an OCR input.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// NewPNGInput builds an input for PNG data that was persisted at path.
func NewPNGInput(id, path string, data []byte, opts ...InputOption) Input {
	in := Input{
		ID:     id,
		Image:  data,
		Path:   path,
		Format: ImageFormatPNG,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}
