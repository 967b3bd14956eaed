package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/SignalWalker/rexa-go/captp"
	"github.com/SignalWalker/rexa-go/internal/log"
	"github.com/SignalWalker/rexa-go/netlayer"
	"github.com/SignalWalker/rexa-go/syrup"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const version = "0.0.1-dev"

func main() {
	app := &cli.App{
		Name:    "ocapn-demo",
		Version: version,
		Usage:   "ocapn-demo – a minimal two-node CapTp session over an in-process mock netlayer",
		Commands: []*cli.Command{
			fetchCmd,
		},
	}

	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(zerolog.DebugLevel)
		log.EnableConsoleOutput()
		log.Debug().Msg("Debug logging enabled")
	} else {
		log.SetLevel(zerolog.InfoLevel)
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Application error")
	}
}

/* ----------------- commands ----------------- */

var fetchCmd = &cli.Command{
	Name:  "fetch",
	Usage: "fetch – run a server and client node over a mock transport, fetch a greeter object, and call it",
	Action: func(c *cli.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hub := netlayer.NewMockHub()

		registry := captp.NewBootstrapRegistry()
		greeter := captp.NewMethodObject(map[string]func(context.Context, []syrup.Node) (syrup.Encodable, error){
			"greet": func(_ context.Context, args []syrup.Node) (syrup.Encodable, error) {
				name, err := syrup.AsString(args[0])
				if err != nil {
					return nil, err
				}
				return syrup.Text("hello, " + name), nil
			},
		})
		swiss := registry.Register(greeter)
		log.Info().Msg("registered greeter object on server bootstrap")

		serverSigner, err := captp.NewEd25519Signer()
		if err != nil {
			return fmt.Errorf("generating server identity: %w", err)
		}
		serverLocator := captp.NodeLocator{Designator: "server", Transport: "mock"}
		serverMgr := netlayer.NewManager(serverSigner, serverLocator, registry)
		serverMgr.RegisterTransport(netlayer.NewMockTransport(hub, "server"))
		go func() {
			if err := serverMgr.Serve(ctx, "mock"); err != nil {
				log.Warn().Err(err).Msg("server netlayer stopped")
			}
		}()

		clientSigner, err := captp.NewEd25519Signer()
		if err != nil {
			return fmt.Errorf("generating client identity: %w", err)
		}
		clientLocator := captp.NodeLocator{Designator: "client", Transport: "mock"}
		clientMgr := netlayer.NewManager(clientSigner, clientLocator, nil)
		clientMgr.RegisterTransport(netlayer.NewMockTransport(hub, "client"))

		session, err := clientMgr.Connect(ctx, serverLocator)
		if err != nil {
			return fmt.Errorf("connecting to server: %w", err)
		}
		log.Info().Str("remote", fmt.Sprintf("%x", session.RemotePublicKey())).Msg("session established")

		fetchResult, err := session.Bootstrap().Call(ctx, "fetch", syrup.Bytes(swiss))
		if err != nil {
			return fmt.Errorf("fetching greeter: %w", err)
		}
		fields, err := syrup.AsRecord(fetchResult.Value, captp.LabelDescExport)
		if err != nil {
			return fmt.Errorf("decoding fetch result: %w", err)
		}
		pos, err := syrup.AsUint64(fields[0])
		if err != nil {
			return fmt.Errorf("decoding greeter position: %w", err)
		}

		greetResult, err := session.RemoteObjectAt(pos).Call(ctx, "greet", syrup.Text("ocapn"))
		if err != nil {
			return fmt.Errorf("calling greeter: %w", err)
		}
		greeting, err := syrup.AsString(greetResult.Value)
		if err != nil {
			return fmt.Errorf("decoding greeting: %w", err)
		}
		fmt.Println(greeting)
		return nil
	},
}
