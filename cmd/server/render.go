package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/internal/handlers"
	"github.com/veletrh/pattern-kiosk/internal/postcard"
)

// newRenderCmd renders one postcard from an image file without starting the server
func newRenderCmd(kioskPath *string) *cobra.Command {
	var (
		imagePath string
		title     string
		subtitle  string
		simType   string
		lang      string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a postcard from an image file",
		Long:  "Compose a postcard from a saved snapshot using the same layout and tier as the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, kiosk, composer, logger, err := setup(*kioskPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			if lang == "" || !config.IsSupportedLang(lang) {
				lang = kiosk.Branding.DefaultLang
			}
			if title == "" {
				title = handlers.DefaultTitle(lang)
			}

			artifact, err := composer.Render(&postcard.Request{
				Image:          data,
				Title:          title,
				Subtitle:       subtitle,
				SimulationKind: simType,
				Language:       lang,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %dx%d source)\n",
				artifact.Path, artifact.Capability, artifact.SourceWidth, artifact.SourceHeight)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "path to the snapshot image")
	cmd.Flags().StringVar(&title, "title", "", "postcard title")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "postcard subtitle")
	cmd.Flags().StringVar(&simType, "sim", "unknown", "simulation kind used in the file name")
	cmd.Flags().StringVar(&lang, "lang", "", "cs or en")
	cmd.MarkFlagRequired("image")

	return cmd
}

// newCheckConfigCmd validates the kiosk file and reports the render tier
func newCheckConfigCmd(kioskPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "checkconfig",
		Short: "Check the kiosk configuration",
		Long:  "Load the kiosk config file, validate it and report which postcard tier is available.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, kiosk, composer, logger, err := setup(*kioskPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			s := composer.Settings()
			fmt.Fprintf(cmd.OutOrStdout(), "tier: %s\npage: %s (%.3fx%.3f in)\nart_fraction: %.2f\noutput_dir: %s\nsimulations: %v\n",
				composer.Capability(), s.Page.Name, s.Page.WidthIn, s.Page.HeightIn,
				s.ArtFraction, s.OutputDir, kiosk.Registry().EnabledIDs())
			return nil
		},
	}
}
