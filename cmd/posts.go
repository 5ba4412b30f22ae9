package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Bitlatte/postbook/internal/content"
	"github.com/Bitlatte/postbook/internal/model"
)

var (
	postsCategory string
	postsTag      string
	postsArchive  bool
)

var yearHeader = color.New(color.FgCyan, color.Bold)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Lists the posts in the content directory",
	Long: `The posts command prints the content index without building the site:
every post newest first, or year groups with --archive, --category or --tag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := newIndex(appConfig, logger)
		if err != nil {
			return err
		}
		return listPosts(cmd.OutOrStdout(), idx)
	},
}

func listPosts(out io.Writer, idx *content.Index) error {
	var (
		groups []model.ArchiveGroup
		err    error
	)
	switch {
	case postsCategory != "":
		groups, err = idx.ListByCategory(postsCategory)
	case postsTag != "":
		groups, err = idx.ListByTag(postsTag)
	case postsArchive:
		groups, err = idx.ListArchive()
	default:
		posts, err := idx.ListAll()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, p := range posts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Date, p.Slug, p.Category, p.Title)
		}
		return tw.Flush()
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\n", yearHeader.Sprint(g.Year))
		for _, l := range g.Posts {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", l.Date, l.Slug, l.Title)
		}
	}
	return tw.Flush()
}

func init() {
	postsCmd.Flags().StringVar(&postsCategory, "category", "", "Only posts in this category, grouped by year")
	postsCmd.Flags().StringVar(&postsTag, "tag", "", "Only posts carrying this tag, grouped by year")
	postsCmd.Flags().BoolVar(&postsArchive, "archive", false, "Group every post by year")
	rootCmd.AddCommand(postsCmd)
}
