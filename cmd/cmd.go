package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	cfgPkg "github.com/xhad/medisimplify/pkg/config"
	"github.com/xhad/medisimplify/pkg/extract"
	"github.com/xhad/medisimplify/pkg/extract/mupdf"
	"github.com/xhad/medisimplify/pkg/extract/textlayer"
	"github.com/xhad/medisimplify/pkg/llm"
	"github.com/xhad/medisimplify/pkg/ocr"
	"github.com/xhad/medisimplify/pkg/ocr/tesseract"
	"github.com/xhad/medisimplify/pkg/safety"
	"github.com/xhad/medisimplify/pkg/simplify"
)

// pipeline holds the long-lived components shared by every submission.
type pipeline struct {
	service *simplify.Service
	engine  *llm.ChatEngine
	ocr     *ocr.Reader
}

func (p *pipeline) Close() error {
	return p.ocr.Close()
}

func chatConfig(cfg *cfgPkg.Config) llm.ChatConfig {
	var temperature, rateLimit float64
	if cfg.LLM.Temperature != nil {
		temperature = *cfg.LLM.Temperature
	}
	if cfg.LLM.RateLimit != nil {
		rateLimit = *cfg.LLM.RateLimit
	}
	return llm.ChatConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxWords:    cfg.LLM.MaxWords,
		RateLimit:   rateLimit,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		Logger:      log.Logger,
	}
}

func buildPipeline(ctx context.Context, cfg *cfgPkg.Config) (*pipeline, error) {
	// Initialize components
	chatEngine, err := llm.NewWithConfig(ctx, chatConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	reader := ocr.NewReader(tesseract.Factory(cfg.Extract.OCRLanguages), ocr.ReaderConfig{
		Languages: cfg.Extract.OCRLanguages,
		MaxSide:   cfg.Extract.MaxImageSide,
		Logger:    log.Logger,
	})

	extractor := extract.NewWithConfig(textlayer.New(), mupdf.New(), reader, extract.ExtractorConfig{
		TextLayerPages:    cfg.Extract.TextLayerPages,
		RenderPages:       cfg.Extract.RenderPages,
		MinPageChars:      cfg.Extract.MinPageChars,
		MinTextLayerChars: cfg.Extract.MinTextLayerChars,
		RenderDPI:         cfg.Extract.RenderDPI,
		EarlyExitChars:    cfg.Extract.EarlyExitChars,
		MaxChars:          cfg.Extract.MaxChars,
		Logger:            log.Logger,
	})

	filter := safety.NewWithConfig(safety.FilterConfig{
		Keywords: cfg.Safety.Keywords,
	})

	service := simplify.NewWithConfig(extractor, filter, chatEngine, simplify.ServiceConfig{
		LargeFileBytes: cfg.Server.LargeFileBytes,
		Logger:         log.Logger,
	})

	log.Debug().
		Str("provider", cfg.LLM.Provider).
		Str("model", chatEngine.ModelName()).
		Strs("ocr_languages", cfg.Extract.OCRLanguages).
		Msg("pipeline ready")

	return &pipeline{service: service, engine: chatEngine, ocr: reader}, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}
