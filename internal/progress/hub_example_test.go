package progress

import (
	"context"
	"fmt"
	"time"
)

type exampleCountingSink struct {
	saved int64
}

func (s *exampleCountingSink) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		if evt.Stage == StageDetailSaved {
			s.saved += evt.Count
		}
	}
	return nil
}

func (s *exampleCountingSink) Close(context.Context) error {
	return nil
}

// ExampleHub_Emit demonstrates emitting events and flushing via Close.
func ExampleHub_Emit() {
	sink := &exampleCountingSink{}
	hub := NewHub(Config{
		BufferSize:     4,
		MaxBatchEvents: 1,
		MaxBatchWait:   time.Second,
	}, sink)

	for _, u := range []string{"https://wuzzuf.net/jobs/p/a", "https://wuzzuf.net/jobs/p/b"} {
		hub.Emit(Event{
			RunID: "run-example",
			TS:    time.Unix(0, 0),
			Stage: StageDetailSaved,
			URL:   u,
			Count: 1,
		})
	}
	if err := hub.Close(context.Background()); err != nil {
		panic(err)
	}

	fmt.Printf("records saved: %d\n", sink.saved)
	// Output:
	// records saved: 2
}
