package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/spf13/cobra"
)

func overridesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Manage manual exceptions for competitor listings",
		Long: `Overrides correct what the crawler and the automatic filters got wrong.
A listing is addressed by its key: the marketplace product id when known,
otherwise "seller:<seller>|<title>" as shown by 'undercut report'. Keys are
trimmed, and seller/title keys are matched case-insensitively.`,
		Example: `  # Ignore a listing that is not really the same product
  undercut overrides exclude P1 X123 --note "refurbished"

  # Count a listing the model-code filter rejected
  undercut overrides include P1 X456

  # Supply the shipping fee the crawler could not read
  undercut overrides shipping P1 X789 3000`,
	}

	cmd.AddCommand(overrideKindCmd(model.OverrideExclusion, "exclude", "Exclude a listing from ranking"))
	cmd.AddCommand(overrideKindCmd(model.OverrideInclusion, "include", "Include a listing the filters rejected"))
	cmd.AddCommand(shippingOverrideCmd())
	cmd.AddCommand(removeOverrideCmd())
	cmd.AddCommand(listOverridesCmd())

	return cmd
}

func overrideKindCmd(kind model.OverrideKind, use, short string) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   use + " <product-id> <listing-key>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveOverride(cmd, &model.Override{
				Kind:       kind,
				ProductID:  args[0],
				ListingKey: args[1],
				Note:       note,
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Why the override exists")

	return cmd
}

func shippingOverrideCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "shipping <product-id> <listing-key> <fee>",
		Short: "Set a listing's shipping fee manually",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fee, err := parsePrice(args[2])
			if err != nil {
				return err
			}
			return saveOverride(cmd, &model.Override{
				Kind:        model.OverrideShipping,
				ProductID:   args[0],
				ListingKey:  args[1],
				ShippingFee: fee,
				Note:        note,
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Why the override exists")

	return cmd
}

func saveOverride(cmd *cobra.Command, override *model.Override) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveOverride(ctx, override); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s: %s", override.ProductID, describeOverride(*override))))
	return nil
}

func removeOverrideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <exclusion|inclusion|shipping> <product-id> <listing-key>",
		Short: "Remove an override",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kind, err := parseOverrideKind(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteOverride(ctx, kind, args[1], args[2]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed %s override for %s on %s", kind, args[2], args[1])))
			return nil
		},
	}
}

func listOverridesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <product-id>",
		Short: "List a product's overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			overrides, err := store.ListOverrides(ctx, args[0])
			if err != nil {
				return err
			}
			if len(overrides) == 0 {
				fmt.Println(cli.InfoStyle.Render("No overrides for " + args[0] + "."))
				return nil
			}
			for _, o := range overrides {
				fmt.Printf("  • %s\n", describeOverride(o))
			}
			return nil
		},
	}
}

// parseOverrideKind accepts a kind name or the verb used to create it.
func parseOverrideKind(s string) (model.OverrideKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exclusion", "exclude":
		return model.OverrideExclusion, nil
	case "inclusion", "include":
		return model.OverrideInclusion, nil
	case "shipping":
		return model.OverrideShipping, nil
	default:
		return "", fmt.Errorf("unknown override kind %q (want exclusion, inclusion or shipping)", s)
	}
}
