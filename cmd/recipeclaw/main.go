// RecipeClaw - Recipe extraction bot for Discord
// License: MIT
//
// Copyright (c) 2026 RecipeClaw contributors

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/zhaopengme/recipeclaw/pkg/config"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const logo = "🍳"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s recipeclaw %s\n", logo, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "serve":
		err = serveCmd()
	case "worker":
		err = workerCmd()
	case "register":
		err = registerCmd()
	case "try":
		err = tryCmd(os.Args[2:])
	case "version", "--version", "-v":
		printVersion()
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s recipeclaw - Recipe extraction bot for Discord v%s\n\n", logo, version)
	fmt.Println("Usage: recipeclaw <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve       Serve the Discord interactions endpoint")
	fmt.Println("  worker      Consume queued extractions and send the follow-ups")
	fmt.Println("  register    Register the slash commands with Discord")
	fmt.Println("  try         Extract recipes from a video URL locally")
	fmt.Println("  version     Show version information")
	fmt.Println()
	fmt.Println("Configuration is read from the environment and an optional .env file.")
}

// loadConfig reads the environment and applies the log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	return cfg, nil
}
