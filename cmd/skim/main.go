package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"github.com/pveldt/skim/server"
	"github.com/pveldt/skim/worker"
)

const (
	ProgramName   = "Skim"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/pveldt/skim"
)

type serveCmd struct{}

type workerCmd struct{}

type args struct {
	Server *serveCmd  `arg:"subcommand:serve" help:"start the skim API server"`
	Worker *workerCmd `arg:"subcommand:work" help:"start the skim worker"`

	Config string `arg:"--config,-c" default:"skim.yaml" help:"path to the config file"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	conf, err := ReadConfig(args.Config)
	if err != nil {
		log.Fatalf("failed to read config '%s': %v", args.Config, err)
	}

	switch p.Subcommand().(type) {
	case *serveCmd:
		err = startServer(conf)
	case *workerCmd:
		err = startWorker(conf)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func startServer(conf *config) error {
	srv := server.New(conf.serverConfig())
	return srv.Serve()
}

func startWorker(conf *config) error {
	w := worker.New(conf.workerConfig())
	return w.Start()
}
