package importer

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress reports batch writes during an import
type Progress interface {
	// StartBatch announces batch n (1-based) of total before it is written
	StartBatch(n, total int)
	// Stored records that n loans were committed
	Stored(n int) error
	// Close clears the progress display
	Close()
}

type noopProgress struct{}

func (noopProgress) StartBatch(int, int) {}
func (noopProgress) Stored(int) error    { return nil }
func (noopProgress) Close()              {}

// barProgress draws a loan count bar whose description names the current batch
type barProgress struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

func newBarProgress(w io.Writer, loans int) *barProgress {
	return &barProgress{
		w: w,
		bar: progressbar.NewOptions(loans,
			progressbar.OptionSetDescription("Importing loans"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("loans"),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			})),
	}
}

func (p *barProgress) StartBatch(n, total int) {
	p.bar.Describe(fmt.Sprintf("Importing loans (batch %d/%d)", n, total))
}

func (p *barProgress) Stored(n int) error {
	return p.bar.Add(n)
}

func (p *barProgress) Close() {
	fmt.Fprint(p.w, "\r\033[K")
}
