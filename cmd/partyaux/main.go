package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/partyaux/partyaux/internal/auth"
	"github.com/partyaux/partyaux/internal/channel"
	"github.com/partyaux/partyaux/internal/config"
	"github.com/partyaux/partyaux/internal/domain"
	"github.com/partyaux/partyaux/internal/gateway"
	"github.com/partyaux/partyaux/internal/playback"
	"github.com/partyaux/partyaux/internal/session"
)

// consoleWidget is a stand-in for the embedded video player so the
// whole control path can be exercised from a terminal.
type consoleWidget struct{}

func (consoleWidget) Play()  { log.Info().Str("module", "widget").Msg("play") }
func (consoleWidget) Pause() { log.Info().Str("module", "widget").Msg("pause") }
func (consoleWidget) Seek(seconds float64) {
	log.Info().Str("module", "widget").Float64("seconds", seconds).Msg("seek")
}

func main() {
	joinCode := flag.String("join", "", "room code to join; empty creates a new room")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	cred, err := auth.NewCredential(cfg.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("bad credential, log in again")
	}

	gw := gateway.NewClient(cfg.ServerURL, cred, cfg.RequestTimeout)
	ch := channel.New(cfg.SocketURL, channel.Options{
		ReconnectMin: cfg.ReconnectMin,
		ReconnectMax: cfg.ReconnectMax,
		LostAfter:    cfg.ConnLostAfter,
	})

	sess := session.New(cred, gw, ch, session.Options{
		MaxDownvotes:    cfg.MaxDownvotes,
		FetchTimeout:    cfg.RequestTimeout,
		HostSettleDelay: cfg.HostSettleDelay,
		OnChange: func(snap session.Snapshot) {
			log.Info().
				Str("module", "ui").
				Str("room", string(snap.RoomCode)).
				Str("host", string(snap.Host)).
				Bool("is_host", snap.IsHost).
				Bool("joined", snap.Joined).
				Str("conn", snap.ConnState.String()).
				Str("now_playing", snap.CurrentSong.Title).
				Int("queue", len(snap.Queue)).
				Msg("room state")
		},
		OnNotice: func(n session.Notice) {
			switch n.Kind {
			case channel.KindDownvote:
				log.Info().Str("module", "ui").Str("song", n.Song.Title).Int("downvotes", n.Downvotes).Msg("downvote")
			default:
				log.Info().Str("module", "ui").Str("message", n.Message).Msg("server message")
			}
		},
	})

	ctl := playback.NewController(consoleWidget{}, sess, cfg.RequestTimeout)
	go readCommands(ctx, ctl)

	callCtx, callCancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer callCancel()
	if *joinCode == "" {
		code, err := sess.CreateRoom(callCtx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create room")
		}
		fmt.Printf("room code: %s\n", code)
	} else {
		code, err := domain.ParseRoomCode(*joinCode)
		if err != nil {
			log.Fatal().Err(err).Str("code", *joinCode).Msg("bad room code")
		}
		if err := sess.JoinRoom(callCtx, code); err != nil {
			log.Fatal().Err(err).Msg("could not join room")
		}
	}

	<-ctx.Done()
	log.Info().Msg("leaving room")
	leave(sess)
}

// readCommands drives the playback controller from stdin: "p" toggles
// play/pause, "s" skips, "e" simulates the track ending.
func readCommands(ctx context.Context, ctl *playback.Controller) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		var err error
		switch strings.TrimSpace(sc.Text()) {
		case "p":
			err = ctl.TogglePlayPause()
		case "s":
			err = ctl.Skip(ctx)
		case "e":
			ctl.HandleWidgetState(playback.StateEnded)
		case "":
		default:
			fmt.Println("commands: p (play/pause), s (skip), e (ended)")
		}
		if err != nil {
			log.Warn().Str("module", "ui").Err(err).Msg("playback command refused")
		}
	}
}

func leave(sess *session.Session) {
	done := make(chan struct{})
	go func() {
		sess.Leave()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("leave timed out")
	}
}
