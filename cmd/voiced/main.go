// voiced: standalone voice service. Wraps local whisper.cpp
// transcription and TTS synthesis behind a small HTTP API so the
// orchestrator never links audio tooling directly.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/tacolabs/hungry-agent/internal/config"
	"github.com/tacolabs/hungry-agent/internal/log"
	"github.com/tacolabs/hungry-agent/pkg/stt"
	"github.com/tacolabs/hungry-agent/pkg/tts"
)

// TTSRequest is the body for POST /tts.
type TTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

func main() {
	godotenv.Load()
	log.Init(config.LogLevel())
	logger := log.Component("voiced")

	fmt.Println()
	fmt.Println("🎤 Hungry Agent voice service")
	fmt.Println()

	whisperDir := config.WhisperDir()
	transcriber, err := stt.NewWhisper(stt.WhisperConfig{
		BinaryPath: filepath.Join(whisperDir, "main"),
		ModelPath:  filepath.Join(whisperDir, "models", "ggml-"+config.WhisperModel()+".bin"),
		Logger:     log.L(),
	})
	if err != nil {
		logger.Error("whisper setup failed", "error", err)
		os.Exit(1)
	}
	defer transcriber.Close()

	// Hosted API first, local `say` as the offline fallback.
	var providers []tts.Provider
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		openai, err := tts.NewOpenAI(
			tts.WithAPIKey(key),
			tts.WithVoice(config.TTSVoice()),
		)
		if err != nil {
			logger.Warn("openai tts unavailable", "error", err)
		} else {
			providers = append(providers, openai)
		}
	}
	providers = append(providers, tts.NewSay())

	speech, err := tts.NewChain(providers...)
	if err != nil {
		logger.Error("tts setup failed", "error", err)
		os.Exit(1)
	}
	defer speech.Close()

	app := fiber.New(fiber.Config{
		AppName:               "Hungry Agent Voice",
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024, // audio uploads
	})
	app.Use(recover.New())

	app.Post("/stt", func(c *fiber.Ctx) error {
		audio := c.Body()
		if len(audio) == 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "audio body is required"})
		}

		result, err := transcriber.Transcribe(c.Context(), audio)
		if err != nil {
			logger.Error("transcription failed", "error", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{
			"text":               result.Text,
			"confidence":         result.Confidence,
			"processing_time_ms": result.LatencyMs,
		})
	})

	app.Post("/tts", func(c *fiber.Ctx) error {
		var req TTSRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Text == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
		}

		result, err := speech.Synthesize(c.Context(), req.Text)
		if err != nil {
			logger.Error("synthesis failed", "error", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		c.Set("Content-Type", result.Format.Encoding.ContentType())
		return c.Send(result.Audio)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		sttErr := transcriber.Health(c.Context())
		ttsErr := speech.Health(c.Context())

		status := http.StatusOK
		if sttErr != nil && ttsErr != nil {
			status = http.StatusServiceUnavailable
		}

		return c.Status(status).JSON(fiber.Map{
			"stt": sttErr == nil,
			"tts": ttsErr == nil,
		})
	})

	go func() {
		if err := app.Listen(":" + config.VoicePort()); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	fmt.Println("   Voice API: http://localhost:" + config.VoicePort())
	fmt.Println()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println()
	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Warn("server shutdown failed", "error", err)
	}
}
