package main

import (
	"flag"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/chat"
	"pdf-rag/internal/config"
	"pdf-rag/internal/helper"
)

func main() {
	logFile := flag.String("log", "", "Write logs to this file")
	timeout := flag.Duration("timeout", 2*time.Minute, "Timeout for a single question")
	flag.Parse()

	_ = godotenv.Load()

	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening log file")
		}
		defer f.Close()
		out = f
	}
	helper.SetupLogger(config.LogConfig{Level: "debug"}, out)

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		log.Warn().Msg("API_URL is not set")
	}
	client := chat.NewClient(apiURL, &http.Client{Timeout: *timeout})

	p := tea.NewProgram(chat.NewModel(client, *timeout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("Chat exited with error")
		os.Exit(1)
	}
}
