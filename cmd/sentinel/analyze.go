package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/linksafety"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/ocr"
	"github.com/Veraticus/sentinel/internal/pipeline"
	"github.com/spf13/cobra"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// analysisOutput is the JSON shape of one analysis on stdout.
type analysisOutput struct {
	*model.PipelineResult
	Links *model.LinkReport `json:"links,omitempty"`
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [image|dir]...",
		Short: "Analyze message screenshots for fraud",
		Long: `Extract the text of each screenshot, pull out the transaction details and
classify the message.

Directories are scanned (non-recursively) for images and processed with a
progress bar.

Examples:
  # Analyze a single screenshot
  sentinel analyze sms.png

  # Analyze every screenshot in a folder and print JSON
  sentinel analyze ./screenshots --json

  # Skip OCR and analyze text directly, checking its links
  sentinel analyze --text "Your KYC expires today, update at bit.ly/kyc" --links`,
		RunE: runAnalyze,
	}

	cmd.Flags().String("text", "", "Analyze this message text instead of images")
	cmd.Flags().Bool("json", false, "Print results as JSON")
	cmd.Flags().Bool("links", false, "Also check the safety of links in the message")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	asJSON, _ := cmd.Flags().GetBool("json")
	withLinks, _ := cmd.Flags().GetBool("links")

	if text == "" && len(args) == 0 {
		return errors.New("provide at least one image or directory, or use --text")
	}

	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	p, cleanup, err := buildPipeline(cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	var links *linksafety.Analyzer
	if withLinks {
		links = buildLinkAnalyzer(cfg, true)
	}

	out := cmd.OutOrStdout()

	if text != "" {
		result, err := p.AnalyzeText(pipeline.WithSource(ctx, "text"), text)
		if err != nil {
			return err
		}
		return printAnalyses(out, []analysisOutput{withLinkReport(ctx, links, result)}, asJSON)
	}

	paths, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found in %s", strings.Join(args, ", "))
	}

	outputs, err := analyzeImages(ctx, cmd.ErrOrStderr(), p, links, paths, !asJSON, store != nil)
	if err != nil {
		return err
	}
	return printAnalyses(out, outputs, asJSON)
}

// analyzeImages runs the pipeline over paths. Unreadable images are logged
// and skipped. An interrupt stops the batch and keeps what was finished.
func analyzeImages(
	ctx context.Context,
	progress io.Writer,
	p *pipeline.Pipeline,
	links *linksafety.Analyzer,
	paths []string,
	showProgress bool,
	historySaved bool,
) ([]analysisOutput, error) {
	batch := len(paths) > 1
	if batch {
		interrupts := cli.NewInterruptHandler(progress)
		ctx = interrupts.HandleInterrupts(ctx, historySaved)
		defer interrupts.Stop()
	}

	var finish func()
	step := func() {}
	if batch && showProgress {
		bar := cli.NewProgressBar(progress, len(paths))
		step = func() { _ = bar.Add(1) }
		finish = func() { _ = bar.Finish() }
	}

	outputs := make([]analysisOutput, 0, len(paths))
	for _, path := range paths {
		img, err := ocr.Open(path)
		if err != nil {
			slog.Warn("Skipping unreadable image", "path", path, "error", err)
			step()
			continue
		}

		result, err := p.Analyze(pipeline.WithSource(ctx, path), img)
		if err != nil {
			if ctx.Err() != nil && len(outputs) > 0 {
				break
			}
			return nil, err
		}
		outputs = append(outputs, withLinkReport(ctx, links, result))
		step()
	}
	if finish != nil {
		finish()
	}
	return outputs, nil
}

func withLinkReport(ctx context.Context, links *linksafety.Analyzer, result *model.PipelineResult) analysisOutput {
	out := analysisOutput{PipelineResult: result}
	if links != nil && result.ExtractedText != model.NoTextDetected {
		out.Links = links.AnalyzeText(ctx, result.ExtractedText)
	}
	return out
}

func printAnalyses(w io.Writer, outputs []analysisOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(outputs) == 1 {
			return enc.Encode(outputs[0])
		}
		return enc.Encode(outputs)
	}

	for _, o := range outputs {
		if _, err := fmt.Fprintln(w, cli.RenderAnalysis(o.PipelineResult)); err != nil {
			return err
		}
		if o.Links != nil {
			if _, err := fmt.Fprintln(w, cli.RenderLinkReport(o.Links)); err != nil {
				return err
			}
		}
	}
	return nil
}

// collectImages expands directories into the images they contain, sorted by name.
func collectImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot list %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
