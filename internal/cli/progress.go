package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/shiftbook/internal/ingest"
)

// SyncProgress shows a spinner with running receipt counts while a sync runs.
// Its Update method fits ingest.Service.OnPage.
type SyncProgress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
}

// NewSyncProgress creates a spinner writing to w.
func NewSyncProgress(w io.Writer) *SyncProgress {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("[cyan][bold]Syncing receipts...[reset]"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &SyncProgress{bar: bar, writer: w}
}

// Update advances the spinner by the records of one page.
func (p *SyncProgress) Update(pp ingest.PageProgress) {
	p.bar.Describe(fmt.Sprintf("[cyan][bold]Syncing receipts[reset] page %d: %d new, %d skipped, %d rejected, %d failed",
		pp.Page, pp.Processed, pp.Skipped, pp.Rejected, pp.Failed))
	if err := p.bar.Add(pp.Received); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish stops the spinner.
func (p *SyncProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

// FormatSyncSummary renders the outcome of a sync run.
func FormatSyncSummary(res *ingest.Result) string {
	body := RenderKeyValues([][2]string{
		{"Stored", fmt.Sprintf("%d", res.Processed)},
		{"Already stored", fmt.Sprintf("%d", res.Skipped)},
		{"Rejected", fmt.Sprintf("%d", res.Rejected)},
		{"Failed", fmt.Sprintf("%d", res.Failed)},
		{"Pages", fmt.Sprintf("%d", res.Pages)},
		{"Time taken", res.Duration.Round(time.Millisecond).String()},
	})

	title := "Sync Complete"
	if res.Failed > 0 || res.Rejected > 0 {
		title = "Sync Complete (with problems)"
	}
	return RenderBox(title, body)
}
