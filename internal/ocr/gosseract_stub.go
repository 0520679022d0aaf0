//go:build !ocr

package ocr

func NewGosseract(languages string) (Engine, error) {
	return nil, ErrNotEnabled
}
