package report

import "io"

// DocumentSink draws absolutely positioned text and encodes the result.
// Coordinates are millimetres with Y measured up from the bottom edge.
type DocumentSink interface {
	AddPage(widthMM, heightMM float64) error
	DrawText(block TextBlock) error
	Encode(w io.Writer) error
}

// Draw replays a laid-out page onto sink.
func Draw(sink DocumentSink, page Page) error {
	if err := sink.AddPage(page.WidthMM, page.HeightMM); err != nil {
		return err
	}
	for _, block := range page.Blocks {
		if err := sink.DrawText(block); err != nil {
			return err
		}
	}
	return nil
}
