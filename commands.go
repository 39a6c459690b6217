package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"picstego/config"
	"picstego/cover"
	"picstego/handlers"
	"picstego/imageio"
	"picstego/logging"
	"picstego/metrics"
	"picstego/service"
	"picstego/session"
	"picstego/stego"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "picstego",
		Short:         "Hide text in the least significant bits of lossless images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newEmbedCmd(),
		newExtractCmd(),
		newCapacityCmd(),
		newCoverCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return serve(cmd.Context(), config.Load())
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	sessions, err := session.NewStore(ctx, session.Options{TTL: cfg.SessionTTL, MaxSizeMB: cfg.SessionCacheMB})
	if err != nil {
		return err
	}
	defer sessions.Close()

	svc := service.New(imageio.NewImageDecoder(cfg.MaxImagePixels), m, logger).WithMinPSNR(cfg.MinPSNR)
	router := handlers.NewRouter(cfg, handlers.NewStegoHandler(svc, sessions, cfg, logger), m, logger)

	logger.Info("server starting",
		zap.String("port", cfg.Port),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Bool("metrics", m != nil),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

func newEmbedCmd() *cobra.Command {
	var (
		image   string
		message string
		output  string
		format  string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "embed --image <cover> --message <text>",
		Short: "Hide a message in a cover image and write a PNG or BMP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, outPath, err := resolveOutput(image, output, format, cmd.Flags().Changed("format"))
			if err != nil {
				return err
			}

			buf, _, err := imageio.NewImageDecoder(0).LoadFile(image)
			if err != nil {
				return err
			}
			original := buf.Clone()
			out, err := stego.Embed(buf, message)
			if err != nil {
				return err
			}

			if err := imageio.WriteFile(outPath, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s as %s (psnr %s dB)\n",
				outPath, outFormat, imageio.FormatPSNR(imageio.CalculatePSNR(original, out)))
			if verbose {
				changed, err := stego.Diff(original, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "changed %d of %d channel LSBs\n", len(changed), stego.Capacity(out))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&image, "image", "i", "", "cover image")
	cmd.Flags().StringVarP(&message, "message", "m", "", "text to hide")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path, defaults to <cover>_stego.<format> next to the cover")
	cmd.Flags().StringVarP(&format, "format", "f", "png", "output format: png or bmp")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report how many channel LSBs changed")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

// resolveOutput settles the output format and path. An explicit --format
// must agree with the extension of an explicit --output.
func resolveOutput(image, output, rawFormat string, formatSet bool) (imageio.Format, string, error) {
	format, err := imageio.ParseFormat(rawFormat)
	if err != nil {
		return "", "", stego.Wrap(stego.KindInputFormat, "embed", err)
	}
	if output == "" {
		return format, filepath.Join(filepath.Dir(image), imageio.OutputName(image, format)), nil
	}

	fromPath, err := imageio.FormatFromPath(output)
	if err != nil {
		return "", "", err
	}
	if formatSet && fromPath != format {
		return "", "", stego.Wrap(stego.KindInputFormat, "embed",
			fmt.Errorf("--format %s does not match output %s", format, output))
	}
	return fromPath, output, nil
}

func newExtractCmd() *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "extract --image <image>",
		Short: "Print the message hidden in an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buf, _, err := imageio.NewImageDecoder(0).LoadFile(image)
			if err != nil {
				return err
			}
			msg, err := stego.Extract(buf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&image, "image", "i", "", "stego image")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newCapacityCmd() *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "capacity --image <image>",
		Short: "Report how many bits and bytes an image can carry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buf, meta, err := imageio.NewImageDecoder(0).LoadFile(image)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d: %d bits, %d message bytes\n",
				meta.Format, buf.Width, buf.Height, stego.Capacity(buf), stego.MaxMessageBytes(buf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&image, "image", "i", "", "image to measure")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newCoverCmd() *cobra.Command {
	var (
		cfg    cover.Config
		output string
	)
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Generate a noisy cover image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buf, err := cover.Generate(cfg)
			if err != nil {
				return err
			}
			if err := imageio.WriteFile(output, buf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %d bits)\n", output, buf.Width, buf.Height, stego.Capacity(buf))
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Width, "width", cover.DefaultWidth, "width in pixels")
	cmd.Flags().IntVar(&cfg.Height, "height", cover.DefaultHeight, "height in pixels")
	cmd.Flags().IntVar(&cfg.Noise, "noise", 0, "per-channel noise amplitude, 0 for the default")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 for a random one")
	cmd.Flags().StringVar(&cfg.Color, "color", "", "base color as #rrggbb, empty for a random one")
	cmd.Flags().StringVarP(&output, "output", "o", "cover.png", "output path (.png or .bmp)")
	return cmd
}
