package app

import (
	"bufio"
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/cashapp/bootstrap/buildsys"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/internal/system"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
	"github.com/cashapp/bootstrap/util/debug"
)

const help = `Bootstrap installs build prerequisites and builds dependencies from source.`

// HTTPTransportConfig defines the configuration for HTTP transports used by bootstrap.
type HTTPTransportConfig struct {
	ResponseHeaderTimeout time.Duration
	DialTimeout           time.Duration
	KeepAlive             time.Duration
}

// Config for the main bootstrap application.
type Config struct {
	Version     string
	LogLevel    ui.Level
	HTTP        func(HTTPTransportConfig) *http.Client
	KongOptions []kong.Option
	KongPlugins kong.Plugins
	// Defaults to system.StateDir() if empty.
	StateDir string
	// True if we're running in CI - disables the status line.
	CI bool
}

type loggingHTTPTransport struct {
	logger ui.Logger
	next   http.RoundTripper
}

func (l *loggingHTTPTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	l.logger.Tracef("%s %s", r.Method, r.URL)
	return l.next.RoundTrip(r)
}

// Make a HTTP client.
func (c Config) makeHTTPClient(logger ui.Logger, config HTTPTransportConfig) *http.Client {
	client := c.HTTP(config)
	if debug.Flags.FailHTTP {
		client.Timeout = time.Millisecond
	}
	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	client.Transport = &loggingHTTPTransport{logger, next}
	return client
}

func (c Config) defaultHTTPClient(logger ui.Logger) *http.Client {
	return c.makeHTTPClient(logger, HTTPTransportConfig{
		ResponseHeaderTimeout: time.Minute,
		DialTimeout:           30 * time.Second,
		KeepAlive:             30 * time.Second,
	})
}

func defaultHTTP(config HTTPTransportConfig) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
	}
	return &http.Client{Transport: transport}
}

// Main runs the bootstrap command-line application with the given config.
func Main(config Config) {
	if code := run(config); code != 0 {
		os.Exit(code)
	}
}

func run(config Config) int {
	config.LogLevel = ui.AutoLevel(config.LogLevel)
	if config.HTTP == nil {
		config.HTTP = defaultHTTP
	}
	var (
		err         error
		p           *ui.UI
		stdoutIsTTY = isatty.IsTerminal(os.Stdout.Fd())
		stderrIsTTY = isatty.IsTerminal(os.Stderr.Fd())
	)
	if stdoutIsTTY {
		// stdout/stderr are unbuffered and thus _very_ slow.
		stdout := bufio.NewWriter(os.Stdout)
		stderr := bufio.NewWriter(os.Stderr)
		go func() {
			for {
				time.Sleep(time.Millisecond * 100)
				if err := stdout.Flush(); err != nil {
					return
				}
				if err := stderr.Flush(); err != nil {
					return
				}
			}
		}()
		p = ui.New(config.LogLevel, &bufioSyncer{stdout}, &bufioSyncer{stderr}, stdoutIsTTY, stderrIsTTY)
		defer stdout.Flush()
		defer stderr.Flush()
	} else {
		p = ui.New(config.LogLevel, os.Stdout, os.Stderr, stdoutIsTTY, stderrIsTTY)
	}
	p.SetStatusEnabled(!config.CI)
	defer func() {
		err := recover()
		p.Clear()
		if err != nil {
			panic(err)
		}
	}()

	if config.StateDir == "" {
		config.StateDir, err = system.StateDir()
		if err != nil {
			log.Fatalf("couldn't determine state directory: %s", err) // nolint: gocritic
		}
	}

	userConfig, err := LoadUserConfig(kong.ExpandPath(userConfigPath))
	if err != nil {
		log.Printf("%s: %s", userConfigPath, err)
	}

	bootstrapHelp := help
	bootstrapHelp += "\n\nConfiguration format for " + userConfigPath + ":\n"
	bootstrapHelp += "    " + strings.Join(strings.Split(userConfigSchema, "\n"), "\n    ")

	cli := &CLI{Plugins: config.KongPlugins}
	kongOptions := []kong.Option{
		kong.Groups{
			"host":  "Host:\nCommands for inspecting and preparing the host.",
			"build": "Build:\nCommands for fetching and building dependencies.",
		},
		kong.Resolvers(UserConfigResolver(userConfig)),
		kong.UsageOnError(),
		kong.Description(bootstrapHelp),
		kong.Bind(userConfig, config),
		kong.Vars{
			"version":       config.Version,
			"build_systems": strings.Join(buildsys.Names(), ","),
			"default_jobs":  "2",
		},
		kong.HelpOptions{
			Compact: true,
		},
	}
	kongOptions = append(kongOptions, config.KongOptions...)

	parser, err := kong.New(cli, kongOptions...)
	if err != nil {
		log.Fatalf("failed to initialise CLI: %s", err)
	}

	kongplete.Complete(parser,
		kongplete.WithPredictor("build-system", complete.PredictSet(buildsys.Names()...)),
		kongplete.WithPredictor("format", complete.PredictSet("text", "json", "yaml")),
		kongplete.WithPredictor("dir", complete.PredictDirs("*")),
		kongplete.WithPredictor("file", complete.PredictFiles("*")),
		kongplete.WithPredictor("hclfile", complete.PredictFiles("*.hcl")),
	)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	configureLogging(cli, p)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if cli.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}
	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(&util.RealCommandRunner{}, (*util.CommandRunner)(nil))
	kctx.Bind(hostResolver(platform.Host))

	err = kctx.Run(p, cli, config.defaultHTTPClient(p), stateDir(config.StateDir))
	if err != nil && p.WillLog(ui.LevelDebug) {
		p.Task("bootstrap").Errorf("%+v", err)
	} else if err != nil {
		p.Task("bootstrap").Errorf("%s", err)
	}
	return errors.ExitCode(err)
}

// stateDir is where bootstrap keeps its persistent state, such as build receipts.
type stateDir string

func configureLogging(cli *CLI, p *ui.UI) {
	switch {
	case cli.Trace:
		p.SetLevel(ui.LevelTrace)
	case cli.Debug:
		p.SetLevel(ui.LevelDebug)
	case cli.Quiet:
		p.SetLevel(ui.LevelFatal)
	default:
		p.SetLevel(ui.AutoLevel(cli.Level))
	}
	if cli.Quiet {
		p.SetStatusEnabled(false)
	}
}

// Makes bufio conform to Sync() so the logger can flush it after each line.
type bufioSyncer struct{ *bufio.Writer }

func (b *bufioSyncer) Sync() error { return b.Flush() }
