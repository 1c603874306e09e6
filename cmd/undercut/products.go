package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/spf13/cobra"
)

func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage tracked products",
		Long:  `Add, list, inspect, reprice, lock, and delete the products you sell.`,
	}

	cmd.AddCommand(addProductCmd())
	cmd.AddCommand(listProductsCmd())
	cmd.AddCommand(showProductCmd())
	cmd.AddCommand(setPriceCmd())
	cmd.AddCommand(setFiltersCmd())
	cmd.AddCommand(lockProductCmd())
	cmd.AddCommand(unlockProductCmd())
	cmd.AddCommand(deleteProductCmd())

	return cmd
}

// filterFlags are the relevance filter settings shared by add and set-filters.
type filterFlags struct {
	minPct       string
	maxPct       string
	modelCode    string
	specKeywords []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.minPct, "min-pct", "", "Ignore competitors cheaper than this percentage of your price")
	cmd.Flags().StringVar(&f.maxPct, "max-pct", "", "Ignore competitors pricier than this percentage of your price")
	cmd.Flags().StringVar(&f.modelCode, "model-code", "", "Model code competitor titles must contain")
	cmd.Flags().StringSliceVar(&f.specKeywords, "spec", nil, "Spec keyword competitor titles must contain (repeatable)")
}

// apply copies every flag the user set onto product.
func (f *filterFlags) apply(cmd *cobra.Command, product *model.Product) error {
	flags := cmd.Flags()
	if flags.Changed("min-pct") {
		pct, err := parseOptionalPct(f.minPct, "min-pct")
		if err != nil {
			return err
		}
		product.PriceFilterMinPct = pct
	}
	if flags.Changed("max-pct") {
		pct, err := parseOptionalPct(f.maxPct, "max-pct")
		if err != nil {
			return err
		}
		product.PriceFilterMaxPct = pct
	}
	if flags.Changed("model-code") {
		product.ModelCode = strings.TrimSpace(f.modelCode)
	}
	if flags.Changed("spec") {
		product.SpecKeywords = model.NormalizeSpecKeywords(f.specKeywords)
	}
	return product.Validate()
}

func addProductCmd() *cobra.Command {
	var (
		accountID string
		name      string
		filters   filterFlags
	)

	cmd := &cobra.Command{
		Use:   "add <id> <selling-price>",
		Short: "Add or replace a product",
		Args:  cobra.ExactArgs(2),
		Example: `  undercut products add P1 50000 --account acct-1 --name "AB-100 USB hub" \
    --model-code AB-100 --spec 4-port --min-pct 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			price, err := parsePrice(args[1])
			if err != nil {
				return err
			}

			product := &model.Product{
				ID:           strings.TrimSpace(args[0]),
				AccountID:    strings.TrimSpace(accountID),
				Name:         strings.TrimSpace(name),
				SellingPrice: price,
			}
			if err := filters.apply(cmd, product); err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveProduct(ctx, product); err != nil {
				return fmt.Errorf("failed to save product: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved product %s (%s) at %s", product.ID, product.Name, cli.FormatMoney(product.SellingPrice))))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Seller account the product belongs to")
	cmd.Flags().StringVar(&name, "name", "", "Product name")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("name")
	filters.register(cmd)

	return cmd
}

func listProductsCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := accountsFor(ctx, store, accountID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Account"),
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Price"),
				cli.TableHeaderStyle.Render("Keywords"))

			count := 0
			for _, account := range accounts {
				products, err := store.ListProducts(ctx, account)
				if err != nil {
					return fmt.Errorf("failed to list products: %w", err)
				}
				for _, p := range products {
					count++
					name := p.Name
					if p.IsPriceLocked {
						name = cli.LockIcon + " " + name
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.AccountID, p.ID, cli.Truncate(name, 40), cli.FormatMoney(p.SellingPrice), len(p.Keywords))
				}
			}

			if count == 0 {
				fmt.Println(cli.InfoStyle.Render("No products found. Use 'undercut products add' to create one."))
				return nil
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Only list products of this account")

	return cmd
}

func showProductCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a product's configuration, keywords, and overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			p, err := store.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}
			overrides, err := store.ListOverrides(ctx, p.ID)
			if err != nil {
				return err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Account:       %s\n", p.AccountID)
			fmt.Fprintf(&b, "Price:         %s\n", cli.FormatMoney(p.SellingPrice))
			fmt.Fprintf(&b, "Price filter:  %s .. %s\n", pctOrAny(p.PriceFilterMinPct), pctOrAny(p.PriceFilterMaxPct))
			fmt.Fprintf(&b, "Model code:    %s\n", orNone(p.ModelCode))
			fmt.Fprintf(&b, "Spec keywords: %s\n", orNone(strings.Join(p.SpecKeywords, ", ")))
			if p.IsPriceLocked {
				fmt.Fprintf(&b, "Locked:        %s %s\n", cli.LockIcon, orNone(p.PriceLockReason))
			}

			fmt.Fprintf(&b, "\nKeywords:\n")
			if len(p.Keywords) == 0 {
				fmt.Fprintf(&b, "  (none)\n")
			}
			for _, kw := range p.Keywords {
				crawled := "never crawled"
				if kw.LastCrawledAt != nil {
					crawled = "crawled " + kw.LastCrawledAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(&b, "  • %s (%s)\n", kw.Text, crawled)
			}

			fmt.Fprintf(&b, "\nOverrides:\n")
			if len(overrides) == 0 {
				fmt.Fprintf(&b, "  (none)")
			}
			for i, o := range overrides {
				fmt.Fprintf(&b, "  • %s", describeOverride(o))
				if i < len(overrides)-1 {
					b.WriteString("\n")
				}
			}

			fmt.Println(cli.RenderBox(p.ID+"  "+p.Name, b.String()))
			return nil
		},
	}
}

func setPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-price <id> <selling-price>",
		Short: "Update a product's selling price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			price, err := parsePrice(args[1])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			product, err := store.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}
			previous := product.SellingPrice
			product.SellingPrice = price
			if err := store.SaveProduct(ctx, product); err != nil {
				return fmt.Errorf("failed to save product: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s: %s → %s", product.ID, cli.FormatMoney(previous), cli.FormatMoney(price))))
			return nil
		},
	}
}

func setFiltersCmd() *cobra.Command {
	var (
		filters  filterFlags
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "set-filters <id>",
		Short: "Update a product's relevance filters",
		Long: `Update the price band, model code, and spec keywords used to decide
which competitor listings are comparable. Pass an empty value to clear a
single filter, or --clear to remove them all.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			product, err := store.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}
			if clearAll {
				product.PriceFilterMinPct = nil
				product.PriceFilterMaxPct = nil
				product.ModelCode = ""
				product.SpecKeywords = nil
			}
			if err := filters.apply(cmd, product); err != nil {
				return err
			}
			if err := store.SaveProduct(ctx, product); err != nil {
				return fmt.Errorf("failed to save product: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated filters for %s", product.ID)))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every filter before applying the others")

	return cmd
}

func lockProductCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "lock <id>",
		Short: "Lock a product's price",
		Long: `Locked products are never queued for a price change. They are
listed separately by 'undercut locked' with their current gap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setLock(cmd, args[0], true, reason)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the price must not change")

	return cmd
}

func unlockProductCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <id>",
		Short: "Unlock a product's price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setLock(cmd, args[0], false, "")
		},
	}
}

func setLock(cmd *cobra.Command, productID string, locked bool, reason string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SetPriceLock(ctx, productID, locked, reason); err != nil {
		return err
	}

	if locked {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s Locked %s", cli.LockIcon, productID)))
	} else {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Unlocked %s", productID)))
	}
	return nil
}

func deleteProductCmd() *cobra.Command {
	var (
		force    bool
		noBackup bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product with its keywords, listings, and overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			product, err := store.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}

			if !force && !confirm(fmt.Sprintf("This will delete %s (%s) and %d keyword(s).", product.ID, product.Name, len(product.Keywords))) {
				fmt.Println(cli.SubtleStyle.Render("Deletion cancelled."))
				return nil
			}

			if !noBackup {
				manager, err := backupManager(store)
				if err != nil {
					return err
				}
				if _, err := manager.AutoBackup(ctx, "delete"); err != nil {
					return err
				}
			}

			if err := store.DeleteProduct(ctx, product.ID); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %s", product.ID)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the automatic backup")

	return cmd
}

func pctOrAny(pct *float64) string {
	if pct == nil {
		return "any"
	}
	return fmt.Sprintf("%g%%", *pct)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func describeOverride(o model.Override) string {
	desc := fmt.Sprintf("%s %s", o.Kind, o.ListingKey)
	if o.Kind == model.OverrideShipping {
		desc += " = " + cli.FormatMoney(o.ShippingFee)
	}
	if o.Note != "" {
		desc += " (" + o.Note + ")"
	}
	return desc
}
