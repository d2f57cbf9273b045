package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/stylist/internal/adapters/http/api"
	service "github.com/okian/stylist/internal/app"
	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/internal/domain/stats"
	"github.com/okian/stylist/internal/loadgen"
)

// itemsFile is the input of "stylist score --file".
type itemsFile struct {
	Items []model.ItemFeature `json:"items"`
}

func newScoreCmd() *cobra.Command {
	var itemsPath, wardrobePath, user, outfit, logLevel string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score the compatibility of an outfit",
		Long:  "Scores either the items in a --file JSON document or a saved --outfit of --user from a --wardrobe fixture.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupCLILogging(logLevel); err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case itemsPath != "":
				var in itemsFile
				if err := readJSONFile(itemsPath, &in); err != nil {
					return err
				}
				return withService(ctx, "", nil, func(svc *service.Service) error {
					res, err := svc.ScoreOutfit(ctx, in.Items)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), res)
				})
			case wardrobePath != "" && user != "" && outfit != "":
				return withService(ctx, wardrobePath, nil, func(svc *service.Service) error {
					res, err := svc.ScoreSavedOutfit(ctx, user, outfit)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), res)
				})
			default:
				return errors.New("pass --file, or --wardrobe with --user and --outfit")
			}
		},
	}
	cmd.Flags().StringVarP(&itemsPath, "file", "f", "", "path to a JSON file with an items array")
	cmd.Flags().StringVarP(&wardrobePath, "wardrobe", "w", "", "path to a wardrobe fixture")
	cmd.Flags().StringVarP(&user, "user", "u", "", "wardrobe owner")
	cmd.Flags().StringVar(&outfit, "outfit", "", "saved outfit id")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var wardrobePath, user, name, notes, logLevel string
	var limit int
	var seed int64
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Pick saved outfits for an occasion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupCLILogging(logLevel); err != nil {
				return err
			}
			ctx := cmd.Context()
			opts := []service.Option{service.WithMatchSeed(seed)}
			return withService(ctx, wardrobePath, opts, func(svc *service.Service) error {
				picked, err := svc.MatchOccasion(ctx, user, model.OccasionQuery{Name: name, Notes: notes}, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), picked)
			})
		},
	}
	cmd.Flags().StringVarP(&wardrobePath, "file", "f", "", "path to a wardrobe fixture (required)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "wardrobe owner (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "occasion name")
	cmd.Flags().StringVar(&notes, "notes", "", "occasion notes")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum outfits; 0 uses the default")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed; 0 is time based")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	markRequired(cmd, "file", "user")
	return cmd
}

func newRecommendCmd() *cobra.Command {
	var wardrobePath, user, climate, logLevel string
	var limit int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest outfit ideas and items to acquire",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupCLILogging(logLevel); err != nil {
				return err
			}
			ctx := cmd.Context()
			return withService(ctx, wardrobePath, nil, func(svc *service.Service) error {
				out, err := svc.Recommend(ctx, user, limit, model.Profile{Climate: climate})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVarP(&wardrobePath, "file", "f", "", "path to a wardrobe fixture (required)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "wardrobe owner (required)")
	cmd.Flags().StringVar(&climate, "climate", "", "climate hint, e.g. cold")
	cmd.Flags().IntVarP(&limit, "limit", "l", 5, "maximum outfit ideas")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	markRequired(cmd, "file", "user")
	return cmd
}

// statsReport is the output of "stylist stats".
type statsReport struct {
	Summary       stats.Summary             `json:"summary"`
	CategoryUsage []stats.CategoryUsage     `json:"category_usage"`
	WearFrequency []stats.ItemWearFrequency `json:"item_wear_frequency"`
}

func newStatsCmd() *cobra.Command {
	var wardrobePath, user, logLevel string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report wardrobe statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupCLILogging(logLevel); err != nil {
				return err
			}
			ctx := cmd.Context()
			return withService(ctx, wardrobePath, nil, func(svc *service.Service) error {
				var rep statsReport
				var err error
				if rep.Summary, err = svc.Summary(ctx, user); err != nil {
					return err
				}
				if rep.CategoryUsage, err = svc.CategoryUsage(ctx, user); err != nil {
					return err
				}
				if rep.WearFrequency, err = svc.WearFrequency(ctx, user); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVarP(&wardrobePath, "file", "f", "", "path to a wardrobe fixture (required)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "wardrobe owner (required)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	markRequired(cmd, "file", "user")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var secret, user string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth, err := api.NewAuthenticator(secret)
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(user, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 secret, the server's auth_secret (required)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "token subject (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	markRequired(cmd, "secret", "user")
	return cmd
}

func newLoadgenCmd() *cobra.Command {
	cfg := loadgen.DefaultConfig()
	var seed uint64
	var logLevel string
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running server with generated score jobs",
		Long:  "Submits generated outfits for several users, waits for the queue to drain and checks every user's ranking order.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupCLILogging(logLevel); err != nil {
				return err
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			st, err := loadgen.Run(cmd.Context(), cfg, seed)
			if perr := printJSON(cmd.OutOrStdout(), st); perr != nil {
				return errors.Join(err, perr)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	f.IntVar(&cfg.Users, "users", cfg.Users, "number of users")
	f.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "number of score jobs")
	f.IntVar(&cfg.Items, "items", cfg.Items, "items per outfit")
	f.IntVar(&cfg.Dimensions, "dims", cfg.Dimensions, "embedding dimensions")
	f.IntVar(&cfg.TopN, "top", cfg.TopN, "ranking depth checked per user")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&cfg.Settle, "settle", cfg.Settle, "how long to wait for the queue to drain")
	f.StringVar(&cfg.Token, "token", "", "bearer token; empty sends X-User-ID")
	f.StringVarP(&cfg.OutputFile, "output", "o", "", "save generated jobs to this file")
	f.Uint64Var(&seed, "seed", 0, "generator seed; 0 is time based")
	f.StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

// withService runs fn against an offline service and stops it afterwards.
func withService(ctx context.Context, wardrobePath string, opts []service.Option, fn func(*service.Service) error) error {
	svc, err := offlineService(ctx, wardrobePath, opts...)
	if err != nil {
		return err
	}
	defer svc.Stop()
	return fn(svc)
}
