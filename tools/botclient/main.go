// botclient is a headless controller: it signs in through the gateway,
// opens or joins a room on the game-service and flies a ship with random
// controls, logging prediction telemetry as it goes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alainledesmablanco-dev/interestelar2/client"
	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

type options struct {
	Gateway   string        `mapstructure:"gateway"`
	WS        string        `mapstructure:"ws"`
	Name      string        `mapstructure:"name"`
	Codec     string        `mapstructure:"codec"`
	Room      string        `mapstructure:"room"`
	Start     bool          `mapstructure:"start"`
	Duration  time.Duration `mapstructure:"duration"`
	Report    time.Duration `mapstructure:"report"`
	Adaptive  bool          `mapstructure:"adaptive_blend"`
	LogLevel  string        `mapstructure:"log_level"`
	SteerEach time.Duration `mapstructure:"steer_every"`
}

func loadOptions() (options, error) {
	fs := pflag.NewFlagSet("botclient", pflag.ContinueOnError)
	fs.String("gateway", "http://127.0.0.1:8080", "gateway base URL")
	fs.String("ws", "ws://127.0.0.1:3000/ws", "game-service websocket URL")
	fs.String("name", "", "display name (empty for a generated one)")
	fs.String("codec", "json", "wire codec: json or msgpack")
	fs.String("room", "", "room code to join; empty creates a new room")
	fs.Bool("start", true, "start the room when hosting")
	fs.Duration("duration", time.Minute, "how long to play")
	fs.Duration("report", 2*time.Second, "telemetry log interval")
	fs.Bool("adaptive_blend", true, "size correction blends from the measured RTT")
	fs.String("log_level", "info", "log level")
	fs.Duration("steer_every", 400*time.Millisecond, "how often the bot picks a new control")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("BOT")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return options{}, err
	}
	var o options
	if err := v.Unmarshal(&o); err != nil {
		return options{}, err
	}
	return o, nil
}

func main() {
	opts, err := loadOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New("botclient", logging.Config{Level: opts.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.WithError(err).Fatal("bot stopped")
	}
}

func run(ctx context.Context, opts options, log *logrus.Entry) error {
	ident, err := signIn(ctx, opts.Gateway, opts.Name)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	log = log.WithField("name", ident.Name)
	log.WithField("player", ident.PlayerID).Info("signed in")

	ended := make(chan string, 1)
	handlers := client.Handlers{
		OnLobby: func(lu pb.LobbyUpdate) {
			log.WithFields(logrus.Fields{"room": lu.GameID, "players": len(lu.Players)}).Info("lobby update")
		},
		OnStarted: func() { log.Info("game started") },
		OnEnded: func(ge pb.GameEnded) {
			select {
			case ended <- ge.Reason:
			default:
			}
		},
		OnHit: func(h pb.Hit) {
			if h.PlayerID == ident.PlayerID {
				log.WithField("hp", h.HP).Info("hit")
			}
		},
		OnRespawn: func(r pb.Respawn) {
			if r.PlayerID == ident.PlayerID {
				log.Info("respawned")
			}
		},
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	sess, err := client.Dial(dialCtx, client.Config{
		URL:           opts.WS,
		Token:         ident.Token,
		Codec:         opts.Codec,
		AdaptiveBlend: opts.Adaptive,
	}, handlers, log)
	cancel()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stopPlay := context.WithTimeout(ctx, opts.Duration)
	defer stopPlay()

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	if err := enterRoom(ctx, sess, opts, log); err != nil {
		return err
	}

	steer := time.NewTicker(opts.SteerEach)
	defer steer.Stop()
	report := time.NewTicker(opts.Report)
	defer report.Stop()
	for {
		select {
		case <-steer.C:
			sess.SetControl(randomControl())
		case <-report.C:
			tel := sess.Telemetry()
			log.WithFields(logrus.Fields{
				"rtt":     tel.RTT,
				"offset":  tel.ClockOffset,
				"pending": tel.Pending,
				"tick":    tel.ServerTick,
				"age":     tel.SnapshotAge,
			}).Info("telemetry")
		case reason := <-ended:
			log.WithField("reason", reason).Info("game ended")
			stopPlay()
			return <-runErr
		case err := <-runErr:
			return err
		}
	}
}

func enterRoom(ctx context.Context, sess *client.Session, opts options, log *logrus.Entry) error {
	if opts.Room != "" {
		if err := sess.JoinGame(ctx, opts.Room); err != nil {
			return fmt.Errorf("join %s: %w", opts.Room, err)
		}
		log.WithField("room", opts.Room).Info("joined room")
		return nil
	}
	code, err := sess.CreateGame(ctx)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	log.WithField("room", code).Info("room created")
	if opts.Start {
		return sess.StartGame(ctx)
	}
	return nil
}

type identity struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

func signIn(ctx context.Context, gateway, name string) (identity, error) {
	body, _ := json.Marshal(map[string]string{"name": name})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gateway+"/api/auth", bytes.NewReader(body))
	if err != nil {
		return identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return identity{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return identity{}, fmt.Errorf("gateway returned %s", resp.Status)
	}
	var id identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return identity{}, err
	}
	return id, nil
}

func randomControl() physics.Control {
	angle := rand.Float64() * 2 * math.Pi
	return physics.Control{
		Move:  mgl64.Rotate2D(angle).Mul2x1(mgl64.Vec2{1, 0}).Mul(0.5 + rand.Float64()/2),
		Shoot: rand.IntN(3) == 0,
		Dash:  rand.IntN(20) == 0,
	}
}
