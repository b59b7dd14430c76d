package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/medisimplify/internal/models"
	"github.com/xhad/medisimplify/pkg/processor"
	"github.com/xhad/medisimplify/pkg/render"
	"github.com/xhad/medisimplify/pkg/simplify"
)

type simplifyOptions struct {
	text   string
	pdf    string
	image  string
	output string
	format string
}

func newSimplifyCommand(opts *rootOptions) *cobra.Command {
	so := &simplifyOptions{}

	cmd := &cobra.Command{
		Use:   "simplify",
		Short: "Simplify medical text, a PDF report, or an image of one",
		Example: `  medisimplify simplify --text "The patient shows signs of cardiomegaly"
  medisimplify simplify --pdf report.pdf --output simplified.pdf
  cat notes.txt | medisimplify simplify --text -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := validate(cfg); err != nil {
				return err
			}

			req, err := so.request(cmd.InOrStdin(), cfg.Extract.MaxChars)
			if err != nil {
				return err
			}

			p, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			return runSimplify(cmd, p.service, req, so)
		},
	}

	cmd.Flags().StringVar(&so.text, "text", "", "Medical text to simplify, or - to read stdin")
	cmd.Flags().StringVar(&so.pdf, "pdf", "", "PDF medical report")
	cmd.Flags().StringVar(&so.image, "image", "", "Image of a medical report (jpg, jpeg, png)")
	cmd.Flags().StringVarP(&so.output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().StringVar(&so.format, "format", "", "Output file format: txt or pdf (default from the file extension)")
	return cmd
}

func (so *simplifyOptions) request(stdin io.Reader, maxChars int) (simplify.Request, error) {
	var req simplify.Request

	text := so.text
	if text == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return req, fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	text, truncated := processor.Truncate(text, maxChars)
	if truncated {
		color.Yellow("Text truncated to %d characters for processing efficiency", maxChars)
	}
	req.Text = text

	var err error
	if req.PDF, err = readFile(so.pdf); err != nil {
		return req, err
	}
	if req.Image, err = readFile(so.image); err != nil {
		return req, err
	}
	return req, nil
}

func readFile(path string) (*models.Upload, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &models.Upload{Name: filepath.Base(path), Data: data}, nil
}

func runSimplify(cmd *cobra.Command, service *simplify.Service, req simplify.Request, so *simplifyOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	upload := req.Image
	if upload == nil {
		upload = req.PDF
	}
	if upload != nil {
		color.Cyan("File size: %.1f KB", float64(upload.Size())/1024)
		if service.LargeFile(upload) {
			color.Yellow("Large files may take longer to process. Consider using smaller files or specific pages.")
		}
	}

	spinner := getSpinner("Extracting text...")
	doc, extractErr := service.Extract(ctx, req)
	spinner.Finish()

	for _, w := range doc.Warnings {
		color.Yellow("%s", w)
	}
	if upload != nil {
		kind := "PDF"
		if doc.Source == models.SourceImage {
			kind = "image"
		}
		switch {
		case extractErr != nil:
			color.Red("Error processing %s: %v", kind, extractErr)
		case strings.TrimSpace(doc.Content) == "":
			color.Yellow("No text could be extracted from the %s.", kind)
		default:
			color.Green("Text extracted successfully! (%d characters)", len([]rune(doc.Content)))
		}
	}

	bar := getProgressBar(100, "Processing with AI...")
	result, err := service.Simplify(ctx, doc, func(percent int, status string) {
		bar.Describe(color.BlueString(status))
		bar.Set(percent)
	})
	bar.Finish()
	if err != nil {
		return err
	}

	if so.output == "" {
		color.New(color.FgGreen, color.Bold).Fprintln(out, "\nSimplified Explanation")
		fmt.Fprintln(out, result.Simplified)
		return nil
	}
	return writeResult(so.output, so.format, result.Simplified)
}

func writeResult(path, format, text string) error {
	if format == "" {
		format = "txt"
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			format = "pdf"
		}
	}

	var data []byte
	switch format {
	case "txt":
		data = []byte(text)
	case "pdf":
		var err error
		if data, err = render.PDF("Simplified Explanation", text); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q, expected txt or pdf", format)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	color.Green("✓ Saved to %s", path)
	return nil
}
