package main

import (
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/realtime/cmd/utils/internal/commands"
)

const (
	appName    = "realtime-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := apt.LoadConfig("UTILS", nil)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "gen-token":
		if err := commands.GenToken(config, logger, args); err != nil {
			log.Fatalf("Token generation failed: %v", err)
		}

	case "gen-keys":
		if err := commands.GenKeys(logger); err != nil {
			log.Fatalf("Key generation failed: %v", err)
		}

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - development utilities for the realtime gateway

Usage:
  utils <command> [flags]

Commands:
  gen-keys     Generate a base64 ed25519 key pair for token signing
  gen-token    Mint a signed development token (requires auth.token.key.private)
  version      Print the version
  help         Show this help

gen-token flags:
  -sub     subject (user id)
  -tenant  tenant id (required)
  -roles   comma-separated role claims (e.g. waiter or admin,owner)
  -table   table id
  -staff   staff id
  -ttl     token lifetime (default 24h)
`, appName)
}
