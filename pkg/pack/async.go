package pack

import "context"

// Event is a notification from a background run. Progress events carry Path;
// the final event has Done set together with Result or Err.
type Event struct {
	Path   string
	Done   bool
	Result *Result
	Err    error
}

// Start runs req on a single background goroutine and returns its events: one
// per written file, in output order, then exactly one Done event, after which
// the channel is closed. Callers must drain the channel.
func Start(ctx context.Context, p *Packer, req Request) <-chan Event {
	events := make(chan Event, 16)
	progress := req.OnProgress

	go func() {
		defer close(events)

		req.OnProgress = func(relPath string) {
			if progress != nil {
				progress(relPath)
			}
			events <- Event{Path: relPath}
		}
		res, err := p.Run(ctx, req)
		events <- Event{Done: true, Result: res, Err: err}
	}()

	return events
}
