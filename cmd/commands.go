package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/newsinsight/internal/app"
	"github.com/bilgisen/newsinsight/internal/export"
	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/bilgisen/newsinsight/internal/shell"
	"github.com/bilgisen/newsinsight/internal/studio"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the editor HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Serve(ctx)
		},
	}
}

func generateCmd() *cobra.Command {
	var (
		theme   string
		layout  string
		content string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a post for a topic and export it as PNG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			if outDir == "" {
				outDir = cfg.ExportDir
			}
			if outDir == "" {
				outDir = "exports"
			}
			local, err := export.NewLocalSink(outDir)
			if err != nil {
				return err
			}

			// the local sink is passed explicitly so EXPORT_DIR does not
			// produce a second copy
			runCfg := *cfg
			runCfg.ExportDir = ""
			a, err := app.New(ctx, &runCfg, local)
			if err != nil {
				return err
			}
			defer a.Close()

			topic := strings.Join(args, " ")
			fmt.Fprintf(cmd.ErrOrStderr(), "Generating post for %q...\n", topic)
			if err := a.Studio.Generate(ctx, topic); err != nil {
				var appErr *models.AppError
				if !errors.As(err, &appErr) {
					return err
				}
				// generated text is kept when only the image failed
				if appErr.Code != models.ErrCodeImageFailed {
					return fmt.Errorf("%s %s", appErr.Message, appErr.Action)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s Exporting with the previous image.\n", appErr.Message)
			}

			overrides := map[string]string{
				models.FieldThemeColor:  theme,
				models.FieldLayoutType:  layout,
				models.FieldContentType: content,
			}
			for field, value := range overrides {
				if value == "" {
					continue
				}
				if err := a.Studio.UpdateField(field, value); err != nil {
					return err
				}
			}

			res, err := a.Exporter.Export(ctx, a.Studio.Post())
			if err != nil {
				return err
			}
			path, ok := res.Locations[local.Name()]
			if !ok {
				return fmt.Errorf("export was not written to %s", outDir)
			}

			printSummary(cmd, a.Studio.Snapshot(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "theme color (red, cyan, emerald, purple, gold)")
	cmd.Flags().StringVar(&layout, "layout", "", "layout (modern, minimal, bold)")
	cmd.Flags().StringVar(&content, "content", "", "content type (image, video)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default EXPORT_DIR or ./exports)")

	return cmd
}

func printSummary(cmd *cobra.Command, st studio.State, path string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Headline:    %s\n", st.Post.Headline)
	fmt.Fprintf(out, "Badge:       %s\n", st.Post.Badge)
	fmt.Fprintf(out, "Style:       %s / %s / %s\n", st.Post.ThemeColor, st.Post.LayoutType, st.Post.ContentType)
	if st.Analysis != nil {
		tags := make([]string, len(st.Analysis.Hashtags))
		for i, h := range st.Analysis.Hashtags {
			tags[i] = "#" + h
		}
		fmt.Fprintf(out, "Viral score: %d\n", st.Analysis.EngagementScore)
		fmt.Fprintf(out, "Hashtags:    %s\n", strings.Join(tags, " "))
	}
	fmt.Fprintf(out, "Saved:       %s\n", path)
}

func diagnosticsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Print the configuration status report",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			sinks := []string{}
			if cfg.ExportDir != "" {
				sinks = append(sinks, "local")
			}
			if cfg.R2Enabled() {
				sinks = append(sinks, "r2")
			}

			report := shell.Collect(cfg, sinks, shell.NewManifestInstaller(), now, now)
			if err := report.Encode(cmd.OutOrStdout(), output); err != nil {
				return err
			}
			if !report.CredentialConfigured {
				fmt.Fprintln(cmd.ErrOrStderr(), report.Surface.DiagnosticBanner)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")

	return cmd
}
