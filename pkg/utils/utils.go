// pkg/utils/utils.go

package utils

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewByteProgressBar init a progress bar counting bytes, the title will appears at the head of the progress bar.
// A total of 0 means the size is unknown, the bar is completed by the caller with SetTotal(-1, true).
// Output goes to stderr so it never mixes with data written to stdout.
func NewByteProgressBar(title string, total int64, quiet bool) (*mpb.Progress, *mpb.Bar) {
	var progress *mpb.Progress
	if !quiet && IsTerminal(os.Stderr) {
		progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	} else {
		progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(nil))
	}
	bar := progress.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(title, decor.WCSyncWidth),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageSpeed(decor.SizeB1024(0), "% .2f", decor.WC{W: 12}), "done"),
		),
	)
	return progress, bar
}

// ProgressReader counts every byte read from r on bar.
type ProgressReader struct {
	io.Reader
	Bar *mpb.Bar
}

func (p *ProgressReader) Read(buf []byte) (int, error) {
	n, err := p.Reader.Read(buf)
	if n > 0 {
		p.Bar.IncrBy(n)
	}
	return n, err
}
