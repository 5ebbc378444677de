package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const defaultWatermarkOpacity = 0.1

// ApplyWatermark stamps a diagonal text watermark on every page with pdfcpu.
// Opacity outside (0,1] falls back to 0.1.
func ApplyWatermark(pdf []byte, mark Watermark) ([]byte, error) {
	if !mark.Enabled() {
		return pdf, nil
	}
	opacity := mark.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = defaultWatermarkOpacity
	}

	desc := fmt.Sprintf("font:Helvetica, points:48, rot:45, fillcolor:#808080, opacity:%.2f, scale:0.8 rel", opacity)
	wm, err := api.TextWatermark(mark.Text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("pdf: watermark %q: %w", mark.Text, err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, nil, wm, pdfmodel.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("pdf: add watermark: %w", err)
	}
	return out.Bytes(), nil
}

// PageCount reports the number of pages in a PDF document.
func PageCount(pdf []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(pdf), nil)
	if err != nil {
		return 0, fmt.Errorf("pdf: page count: %w", err)
	}
	return count, nil
}
