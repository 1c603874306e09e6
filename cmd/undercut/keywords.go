package main

import (
	"fmt"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/spf13/cobra"
)

func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage the search keywords tracked per product",
		Long: `Each keyword is crawled separately. Competitors found under any keyword
of a product are merged into its competitor table.`,
	}

	cmd.AddCommand(addKeywordCmd())
	cmd.AddCommand(listKeywordsCmd())
	cmd.AddCommand(deleteKeywordCmd())

	return cmd
}

func addKeywordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id> <keyword>",
		Short: "Track a keyword for a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			kw, err := store.AddKeyword(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Tracking %q for %s (ID: %d)", kw.Text, kw.ProductID, kw.ID)))
			return nil
		},
	}
}

func listKeywordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <product-id>",
		Short: "List a product's keywords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.GetProduct(ctx, args[0]); err != nil {
				return err
			}
			keywords, err := store.GetKeywords(ctx, args[0])
			if err != nil {
				return err
			}
			if len(keywords) == 0 {
				fmt.Println(cli.InfoStyle.Render("No keywords yet. Use 'undercut keywords add' to track one."))
				return nil
			}

			for _, kw := range keywords {
				crawled := cli.SubtleStyle.Render("never crawled")
				if kw.LastCrawledAt != nil {
					crawled = fmt.Sprintf("crawled %s, run %s", kw.LastCrawledAt.Local().Format("2006-01-02 15:04"), kw.LastRunID)
				}
				fmt.Printf("%4d  %s  %s\n", kw.ID, kw.Text, crawled)
			}
			return nil
		},
	}
}

func deleteKeywordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id> <keyword>",
		Short: "Stop tracking a keyword and drop its listings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			kw, err := store.FindKeyword(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if err := store.DeleteKeyword(ctx, kw.ID); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Stopped tracking %q for %s", kw.Text, kw.ProductID)))
			return nil
		},
	}
}
