// Package main provides the player control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/videoview/internal/api/connect"
)

var (
	app    = kingpin.New("playerctl", "Control client for playerd")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set PLAYERD_SERVER_TOKEN env)").Envar("PLAYERD_SERVER_TOKEN").String()

	statusCmd = app.Command("status", "Get player status")
	startCmd  = app.Command("start", "Start playback of the current media")
	pauseCmd  = app.Command("pause", "Pause playback")
	resumeCmd = app.Command("resume", "Resume playback")
	stopCmd   = app.Command("stop", "Stop playback")

	seekCmd = app.Command("seek", "Seek to a position")
	seekPos = seekCmd.Arg("position", "Position, e.g. 1m30s").Required().Duration()

	subtitleCmd = app.Command("subtitle", "Set the subtitle track")
	subtitleArg = subtitleCmd.Arg("location", "Subtitle path or URI (omit to clear)").String()

	mediaCmd      = app.Command("media", "Set the media")
	mediaLocation = mediaCmd.Arg("location", "Media path or URI").Required().String()
	mediaStart    = mediaCmd.Flag("start", "Start playback immediately").Bool()

	watchCmd = app.Command("watch", "Stream playback notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewPlayerClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	switch command {
	case statusCmd.FullCommand():
		status(ctx, client)
	case startCmd.FullCommand():
		report(client.Start(ctx))
	case pauseCmd.FullCommand():
		report(client.Pause(ctx))
	case resumeCmd.FullCommand():
		report(client.Resume(ctx))
	case stopCmd.FullCommand():
		report(client.Stop(ctx))
	case seekCmd.FullCommand():
		report(client.Seek(ctx, *seekPos))
	case subtitleCmd.FullCommand():
		report(client.SetSubtitle(ctx, *subtitleArg))
	case mediaCmd.FullCommand():
		report(client.SetMedia(ctx, *mediaLocation, *mediaStart))
	case watchCmd.FullCommand():
		watch(client)
	}
}

func status(ctx context.Context, client *apiconnect.PlayerClient) {
	s, err := client.GetStatus(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== PLAYER STATUS ===")
	fmt.Printf("State: %s\n", s.State)
	if s.Media != "" {
		fmt.Printf("Media: %s (%s)\n", s.Media, s.MediaID)
	} else {
		fmt.Println("Media: none")
	}
	if s.Subtitle != "" {
		fmt.Printf("Subtitle: %s\n", s.Subtitle)
	}
	fmt.Printf("Position: %s / %s\n", formatMs(s.PositionMs), formatMs(s.DurationMs))
	fmt.Printf("Buffered: %d%%\n", s.BufferPercent)
	fmt.Printf("Playing: %v  Seekable: %v\n", s.Playing, s.Seekable)
	fmt.Printf("Subscribers: %d\n", s.Subscribers)
	fmt.Println()
}

func report(resp *apiconnect.CommandResponse, err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if resp.Success {
		fmt.Printf("%s (state: %s)\n", resp.Message, resp.State)
	} else {
		fmt.Printf("Failed: %s\n", resp.Message)
		os.Exit(2)
	}
}

func watch(client *apiconnect.PlayerClient) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := client.Subscribe(ctx, func(n *apiconnect.Notification) error {
		line := fmt.Sprintf("[%d] %s %-9s state=%s", n.SequenceNo, n.At.Format(time.TimeOnly), n.Type, n.State)
		switch {
		case n.PreviousState != "":
			line += " from=" + n.PreviousState
		case n.Percent > 0:
			line += fmt.Sprintf(" buffered=%d%%", n.Percent)
		case n.PositionMs > 0:
			line += " position=" + formatMs(n.PositionMs)
		}
		fmt.Println(line)
		return nil
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func formatMs(ms int64) string {
	if ms < 0 {
		return "unknown"
	}
	return (time.Duration(ms) * time.Millisecond).String()
}
