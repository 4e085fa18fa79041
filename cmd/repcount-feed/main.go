// repcount-feed streams a synthetic exercise to a repcount server, over
// WebSocket by default or as one HTTP batch with -http.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-repcount/internal/httpc"
	"github.com/teslashibe/go-repcount/internal/log"
	"github.com/teslashibe/go-repcount/pkg/client"
	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/pose"
	"github.com/teslashibe/go-repcount/pkg/protocol"
	"github.com/teslashibe/go-repcount/pkg/web"
)

type options struct {
	server   string
	exercise string
	reps     int
	fps      float64
	move     float64
	rest     float64
	joints   bool
	realtime bool
	http     bool
}

func main() {
	var o options
	flag.StringVar(&o.server, "server", "localhost:8090", "repcount server host:port")
	flag.StringVar(&o.exercise, "exercise", "squat", "Exercise name for the session")
	flag.IntVar(&o.reps, "reps", 5, "Repetitions to generate")
	flag.Float64Var(&o.fps, "fps", 30, "Frames per second")
	flag.Float64Var(&o.move, "move", 2, "Seconds of motion per repetition")
	flag.Float64Var(&o.rest, "rest", 1.5, "Seconds of rest between repetitions")
	flag.BoolVar(&o.joints, "joints", false, "Send full pose frames instead of scalar samples")
	flag.BoolVar(&o.realtime, "realtime", true, "Pace frames at the frame rate")
	flag.BoolVar(&o.http, "http", false, "Post one batch to /api/frames instead of streaming")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		log.Init("debug")
	} else {
		log.Init("info")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run := stream
	if o.http {
		run = batch
	}
	if err := run(ctx, o); err != nil {
		fmt.Fprintf(os.Stderr, "repcount-feed: %v\n", err)
		os.Exit(1)
	}
}

func (o options) cycles() pose.CycleOptions {
	c := pose.DefaultCycleOptions(o.reps)
	c.FPS = o.fps
	c.MoveDuration = o.move
	c.RestDuration = o.rest
	return c
}

// stream sends frames over /ws/pose and reports events from /ws/events.
func stream(ctx context.Context, o options) error {
	events, err := client.Dial(ctx, "ws://"+o.server+"/ws/events", log.L())
	if err != nil {
		return err
	}
	defer events.Close()

	feed, err := client.Dial(ctx, "ws://"+o.server+"/ws/pose", log.L())
	if err != nil {
		return err
	}
	defer feed.Close()

	go report(ctx, events)
	go func() {
		for msg := range feed.Events(ctx) {
			if msg.Type == protocol.TypeError {
				if e, err := msg.GetErrorData(); err == nil {
					log.Warn("server rejected message", "type", e.Type, "error", e.Message)
				}
			}
		}
	}()

	if err := feed.Control(protocol.ActionStart, o.exercise); err != nil {
		return err
	}

	interval := time.Duration(float64(time.Second) / o.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cycles := o.cycles()
	samples := pose.SyntheticSamples(cycles)
	frames := pose.SyntheticFrames(cycles)
	send := func(i int) error {
		if o.joints {
			return feed.SendFrame(frames[i])
		}
		return feed.SendSample(samples[i])
	}

	log.Info("streaming", "server", o.server, "frames", len(samples), "joints", o.joints)
	for i := range samples {
		if o.realtime {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if err := send(i); err != nil {
			return err
		}
	}

	// let the last events arrive before ending the session
	time.Sleep(500 * time.Millisecond)
	return feed.Control(protocol.ActionEnd, "")
}

func report(ctx context.Context, c *client.Client) {
	for msg := range c.Events(ctx) {
		if msg.Type != protocol.TypeEvent {
			continue
		}
		ev, err := msg.GetEventData()
		if err != nil {
			continue
		}
		switch ev.Kind {
		case detector.KindRepetitionCompleted:
			log.Info("repetition", "count", ev.Count, "duration", ev.Repetition.Duration, "confidence", ev.Confidence)
		case detector.KindRepetitionRejected:
			log.Info("rejected", "reason", ev.Reason)
		}
	}
}

// batch starts a session, posts all frames at once and ends the session.
func batch(ctx context.Context, o options) error {
	base := "http://" + o.server + "/api"

	if err := httpc.PostJSON(ctx, base+"/session/start", web.SessionRequest{Exercise: o.exercise}, nil); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	req := web.FramesRequest{}
	cycles := o.cycles()
	if o.joints {
		for _, f := range pose.SyntheticFrames(cycles) {
			req.Poses = append(req.Poses, protocol.PoseFromFrame(f))
		}
	} else {
		for _, s := range pose.SyntheticSamples(cycles) {
			req.Samples = append(req.Samples, protocol.SampleData{Time: s.Time, Metric: s.Metric})
		}
	}

	var resp web.FramesResponse
	if err := httpc.PostJSON(ctx, base+"/frames", req, &resp); err != nil {
		return fmt.Errorf("post frames: %w", err)
	}
	for _, ev := range resp.Events {
		if ev.Kind == detector.KindRepetitionCompleted {
			log.Info("repetition", "count", ev.Count, "duration", ev.Repetition.Duration, "confidence", ev.Confidence)
		}
	}

	if err := httpc.PostJSON(ctx, base+"/session/end", nil, nil); err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	var st protocol.StatusData
	if err := httpc.GetJSON(ctx, base+"/status", &st); err != nil {
		return err
	}
	log.Info("done", "processed", resp.Processed, "count", resp.Count, "quality", st.Quality)
	return nil
}
