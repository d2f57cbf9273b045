package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/okian/stylist/internal/adapters/wardrobe"
	service "github.com/okian/stylist/internal/app"
	"github.com/okian/stylist/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stylist",
		Short:         "Outfit compatibility scoring and wardrobe recommendations",
		Long:          "stylist scores how well clothing items go together, ranks each user's saved outfits, and suggests outfits and purchases from a wardrobe.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newScoreCmd(),
		newMatchCmd(),
		newRecommendCmd(),
		newStatsCmd(),
		newTokenCmd(),
		newLoadgenCmd(),
	)
	return root
}

// setupCLILogging sends logs to stderr so stdout carries only JSON output.
func setupCLILogging(level string) error {
	logger.SetOutput(os.Stderr)
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// offlineService starts a service reading from the wardrobe fixture at path.
// The caller must Stop it.
func offlineService(ctx context.Context, path string, opts ...service.Option) (*service.Service, error) {
	src := wardrobe.NewMemorySource()
	if path != "" {
		loaded, err := wardrobe.LoadFile(path)
		if err != nil {
			return nil, err
		}
		src = loaded
	}
	opts = append([]service.Option{service.WithSource(src), service.WithWorkerCount(1)}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start service: %w", err)
	}
	return svc, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}
