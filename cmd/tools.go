package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"storefront/internal/auth"
	"storefront/internal/database"
	"storefront/internal/service"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.migrate(); err != nil {
				return err
			}
			a.logger.Info("schema up to date", "driver", a.cfg.DBDriver)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	cfg := database.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert bootstrap accounts and a demo catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			return database.Seed(cmd.Context(), st.set, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "admin account email")
	cmd.Flags().StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "admin account password")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the back-office dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := service.NewDashboardService(st.set.Users, st.set.Products, st.set.Orders).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return renderStats(cmd, stats)
		},
	}
}

func renderStats(cmd *cobra.Command, stats *service.DashboardStats) error {
	out := cmd.OutOrStdout()

	totals := tablewriter.NewWriter(out)
	totals.Header("Metric", "Value")
	if err := totals.Bulk([][]string{
		{"Customers", strconv.FormatInt(stats.TotalUsers, 10)},
		{"Products", strconv.FormatInt(stats.TotalProducts, 10)},
		{"Orders", strconv.FormatInt(stats.TotalOrders, 10)},
		{"Revenue", stats.TotalRevenue.StringFixed(2)},
	}); err != nil {
		return err
	}
	if err := totals.Render(); err != nil {
		return err
	}

	byStatus := tablewriter.NewWriter(out)
	byStatus.Header("Status", "Orders")
	for _, s := range stats.Charts.Status {
		if err := byStatus.Append([]string{string(s.Name), strconv.FormatInt(s.Value, 10)}); err != nil {
			return err
		}
	}
	if err := byStatus.Render(); err != nil {
		return err
	}

	revenue := tablewriter.NewWriter(out)
	revenue.Header("Month", "Revenue")
	for _, m := range stats.Charts.Revenue {
		if err := revenue.Append([]string{m.Month, m.Total.StringFixed(2)}); err != nil {
			return err
		}
	}
	if err := revenue.Render(); err != nil {
		return err
	}

	recent := tablewriter.NewWriter(out)
	recent.Header("Order", "Customer", "Status", "Amount")
	for _, o := range stats.RecentOrders {
		if err := recent.Append([]string{o.ID, o.Customer.Email, string(o.Status), o.Amount.StringFixed(2)}); err != nil {
			return err
		}
	}
	return recent.Render()
}

func newTokenCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing account (development helper)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			u, err := st.set.Users.GetByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("find %s: %w", email, err)
			}
			if u.Deleted() {
				return fmt.Errorf("account %s is deleted", email)
			}
			tok, err := auth.NewTokens(a.cfg.JWTSecret, a.cfg.JWTTTL).Issue(u)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
