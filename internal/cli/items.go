package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/inventory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List stored food items, newest first",
		Run:   runItems,
	}
	cmd.Flags().String("food-type", "", "Filter by food type")
	cmd.Flags().String("storage", "", "Filter by storage type (cold, warm)")
	cmd.Flags().String("expires-before", "", "Only items expiring on or before this date (DD-MM-YYYY, today)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("text", false, "One line per item instead of JSON")
	RootCmd.AddCommand(cmd)
}

func runItems(cmd *cobra.Command, args []string) {
	foodType, _ := cmd.Flags().GetString("food-type")
	storage, _ := cmd.Flags().GetString("storage")
	limit, _ := cmd.Flags().GetInt("limit")
	text, _ := cmd.Flags().GetBool("text")
	expires, _ := cmd.Flags().GetString("expires-before")

	var before time.Time
	if expires != "" {
		d, err := inventory.ResolveDate(fields.Canonicalize(fields.StockDate, expires), time.Now())
		if err != nil {
			exitErr("expires-before", err)
		}
		before = d
	}

	inv, err := openInventory(cfg, logger)
	if err != nil {
		exitErr("open inventory", err)
	}
	defer inv.Close()

	records, err := inv.List(cmd.Context(), inventory.ListParams{
		FoodType:      foodType,
		StorageType:   storage,
		ExpiresBefore: before,
		Limit:         limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if text {
		for _, r := range records {
			fmt.Fprintln(cmd.OutOrStdout(), r.Describe())
		}
		return
	}
	b, _ := json.MarshalIndent(records, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
