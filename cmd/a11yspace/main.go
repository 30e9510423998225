package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polzovatel/a11y-action-space/internal/actionspace"
	"github.com/polzovatel/a11y-action-space/internal/browser"
	"github.com/polzovatel/a11y-action-space/internal/observe"
	"github.com/polzovatel/a11y-action-space/internal/resolve"
)

type cliOptions struct {
	url        string
	storage    string
	saveState  string
	format     string
	resolveAll bool
	update     bool
}

func main() {
	_ = godotenv.Load()
	opts := parseFlags()
	if opts.url == "" {
		fmt.Fprintln(os.Stderr, "usage: a11yspace -url <page> [-format markdown|json] [-resolve]")
		os.Exit(2)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	launcher, err := browser.NewLauncher(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("browser init")
	}
	defer launcher.Close()

	ctrl, err := launcher.NewController(ctx, opts.storage)
	if err != nil {
		log.Fatal().Err(err).Msg("browser controller")
	}
	defer ctrl.Close(ctx)

	if err := ctrl.Navigate(ctx, opts.url); err != nil {
		log.Fatal().Err(err).Str("url", opts.url).Msg("navigate")
	}

	observer := observe.New(ctrl, log.Logger)
	obs, err := observer.Observe(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("observe")
	}

	if opts.update {
		// A second pass shows IDs staying stable across snapshots.
		updated, err := observer.Update(ctx, obs.Actions)
		if err != nil {
			if observe.IsInconsistency(err) {
				log.Warn().Err(err).Msg("page changed too much, re-observing")
				updated, err = observer.Observe(ctx)
			}
			if err != nil {
				log.Fatal().Err(err).Msg("update")
			}
		}
		obs = updated
	}

	if err := printActions(obs.Actions, opts.format); err != nil {
		log.Fatal().Err(err).Msg("render")
	}

	if opts.resolveAll {
		resolver := resolve.New(browser.NewPageAdapter(ctrl.Page()), log.With().Str("comp", "resolve").Logger())
		for _, a := range obs.Actions {
			sel, err := resolver.Resolve(ctx, a.ID, obs.Raw)
			if err != nil {
				var rerr *resolve.ResolutionError
				if errors.As(err, &rerr) {
					log.Warn().Str("id", a.ID).Str("reason", rerr.Reason).Msg("unresolvable")
					continue
				}
				log.Fatal().Err(err).Str("id", a.ID).Msg("resolve")
			}
			fmt.Printf("%s\t%s\n", a.ID, sel.Selector)
		}
	}

	if opts.saveState != "" {
		if err := ctrl.SaveState(ctx, opts.saveState); err != nil {
			log.Error().Err(err).Msg("save state")
		} else {
			log.Info().Str("path", opts.saveState).Msg("storage saved")
		}
	}
}

func printActions(actions []actionspace.Action, format string) error {
	switch format {
	case "json":
		data, err := actionspace.RenderJSON(actions)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		fmt.Print(actionspace.RenderMarkdown(actions))
	}
	return nil
}

func parseFlags() cliOptions {
	url := flag.String("url", "", "Page to observe")
	storage := flag.String("storage", "", "Path to Playwright storage state")
	save := flag.String("save-state", "", "Path to save updated storage state")
	format := flag.String("format", "markdown", "Output format: markdown or json")
	resolveAll := flag.Bool("resolve", false, "Resolve every action to a unique selector")
	update := flag.Bool("update", false, "Run a second reconciling observation")
	flag.Parse()
	return cliOptions{
		url:        strings.TrimSpace(*url),
		storage:    strings.TrimSpace(*storage),
		saveState:  strings.TrimSpace(*save),
		format:     strings.TrimSpace(*format),
		resolveAll: *resolveAll,
		update:     *update,
	}
}
