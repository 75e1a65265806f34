// RecipeClaw - Recipe extraction bot for Discord
// License: MIT
//
// Copyright (c) 2026 RecipeClaw contributors

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/zhaopengme/recipeclaw/pkg/extract"
	"github.com/zhaopengme/recipeclaw/pkg/followup"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/video"
)

func tryCmd(args []string) error {
	url := ""
	debug := false
	for _, arg := range args {
		switch arg {
		case "--debug", "-d":
			debug = true
		default:
			url = arg
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}
	if err := cfg.ValidateTry(); err != nil {
		return err
	}

	ctx := context.Background()
	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	if url != "" {
		return extractAndPrint(ctx, engine, url, os.Stdout)
	}

	fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n\n", logo)
	interactiveTry(ctx, engine)
	return nil
}

func interactiveTry(ctx context.Context, engine *extract.RetryEngine) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s url: ", logo),
		HistoryFile:     filepath.Join(os.TempDir(), ".recipeclaw_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleTry(ctx, engine)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if !handleTryLine(ctx, engine, line) {
			return
		}
	}
}

func simpleTry(ctx context.Context, engine *extract.RetryEngine) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s url: ", logo)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if !handleTryLine(ctx, engine, line) {
			return
		}
	}
}

// handleTryLine returns false when the user asked to quit.
func handleTryLine(ctx context.Context, engine *extract.RetryEngine, line string) bool {
	input := strings.TrimSpace(line)
	switch input {
	case "":
		return true
	case "exit", "quit":
		fmt.Println("Goodbye!")
		return false
	}
	if err := extractAndPrint(ctx, engine, input, os.Stdout); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
	return true
}

// Runs the extraction and prints the embeds the bot would send, without
// contacting Discord.
func extractAndPrint(ctx context.Context, engine followup.Engine, url string, w io.Writer) error {
	if !video.IsSupportedURL(url) {
		return fmt.Errorf("not a supported URL: %s", url)
	}

	res, err := engine.Run(ctx, url)
	switch {
	case errors.Is(err, extract.ErrExhausted):
		return fmt.Errorf("%s (%w)", followup.MsgExhausted, err)
	case err != nil:
		return err
	case res.Metadata == nil:
		return errors.New(followup.MsgNoVideo)
	case len(res.Recipes) == 0:
		return errors.New(followup.MsgNoRecipes)
	}

	fragments := followup.Compile(*res.Metadata, res.Recipes)
	out := make([]any, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, f.Params())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s %d recipe(s) after %d attempt(s)\n", logo, len(fragments), res.Attempts)
	return nil
}
