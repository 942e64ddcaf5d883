package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <customer-id>",
	Short: "Show what a customer owes, counting unsynced transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[0])
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, ok := a.Customers.Find(id); !ok {
			return fmt.Errorf("customer %d not found", id)
		}
		return printJSON(cmd.OutOrStdout(), a.Transactions.Summary(id))
	},
}

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customers",
}

var customerPhone string

var customerAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a customer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.Customers.Add(cmd.Context(), model.CustomerInput{Name: strings.Join(args, " "), Phone: customerPhone})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), c)
	},
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(cmd.OutOrStdout(), a.Customers.All())
	},
}

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage the price list",
}

var itemAddCmd = &cobra.Command{
	Use:   "add <name> <price>",
	Short: "Add an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid price %q", args[1])
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		it, err := a.Items.Add(cmd.Context(), model.ItemInput{Name: args[0], Price: price})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), it)
	},
}

var debtCmd = &cobra.Command{
	Use:   "debt",
	Short: "Record sales on credit",
}

var debtAddCmd = &cobra.Command{
	Use:   "add <customer-id> <item-id>:<quantity>...",
	Short: "Record a debt; unit prices are taken from the current price list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		customerID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[0])
		}
		lines, err := parseLines(args[1:])
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.Transactions.AddDebt(cmd.Context(), customerID, lines)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), t)
	},
}

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Record payments",
}

var paymentAddCmd = &cobra.Command{
	Use:   "add <customer-id> <amount>",
	Short: "Record a payment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		customerID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[0])
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.Transactions.AddPayment(cmd.Context(), customerID, amount)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), t)
	},
}

// parseLines reads item-id:quantity pairs.
func parseLines(args []string) ([]model.DebtLine, error) {
	lines := make([]model.DebtLine, 0, len(args))
	for _, arg := range args {
		idRaw, qtyRaw, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("line %q must look like <item-id>:<quantity>", arg)
		}
		id, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id in %q", arg)
		}
		qty, err := strconv.ParseInt(qtyRaw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q", arg)
		}
		lines = append(lines, model.DebtLine{ItemID: id, Quantity: qty})
	}
	return lines, nil
}

func init() {
	customerAddCmd.Flags().StringVar(&customerPhone, "phone", "", "customer phone number")
	customerCmd.AddCommand(customerAddCmd, customerListCmd)
	itemCmd.AddCommand(itemAddCmd)
	debtCmd.AddCommand(debtAddCmd)
	paymentCmd.AddCommand(paymentAddCmd)
	rootCmd.AddCommand(balanceCmd, customerCmd, itemCmd, debtCmd, paymentCmd)
}
