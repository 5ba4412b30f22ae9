package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bitlatte/postbook/internal/config"
	"github.com/Bitlatte/postbook/internal/content"
	"github.com/Bitlatte/postbook/internal/model"
	"github.com/Bitlatte/postbook/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the static site from content, layouts, and static assets",
	Long: `The build command indexes the Markdown posts in the content directory,
renders every page with the layouts (embedded defaults, overridable from the
layouts directory), copies static assets and writes the RSS, Atom and JSON
feeds into the configured output directory (default './public/').`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := newIndex(appConfig, logger)
		if err != nil {
			return err
		}
		report, err := runBuildProcess(appConfig, idx, siteData)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Built %d pages and %d feeds into %s in %s\n",
			report.Pages, report.Feeds, appConfig.OutputDir, report.Took)
		return nil
	},
}

func runBuildProcess(cfg config.Config, idx *content.Index, data *model.SiteData) (site.Report, error) {
	report, err := site.NewBuilder(cfg, idx, data, logger).Build()
	if err != nil {
		logger.Error("Build failed", zap.Error(err))
		return report, err
	}
	return report, nil
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
