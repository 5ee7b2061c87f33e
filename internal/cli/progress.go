package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/fanwrite/internal/format"
	"github.com/agbru/fanwrite/internal/orchestration"
)

// DisplayProgress shows a spinner with the average progress of all workers
// and an ETA until progressChan is closed, then prints a completed bar.
// Workers never wait on it beyond the channel buffer.
//
// Parameters:
//   - wg: Signalled when display is complete.
//   - progressChan: Updates sent by the workers.
//   - numWorkers: The number of workers being tracked.
//   - out: The writer for the spinner and the final line.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numWorkers int, out io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(numWorkers)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out), spinner.WithHiddenCursor(true))
	suffix := func() string {
		return fmt.Sprintf(" Merging %d units %s", numWorkers,
			format.FormatProgressBarWithETA(agg.CalculateAverage(), agg.GetETA(), ProgressBarWidth))
	}
	s.UpdateSuffix(suffix())
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintf(out, "Merged %d units [%s] %5.1f%%\n", numWorkers,
					format.ProgressBar(agg.CalculateAverage(), ProgressBarWidth), agg.CalculateAverage()*100)
				return
			}
			agg.Update(update)
		case <-ticker.C:
			s.UpdateSuffix(suffix())
		}
	}
}
