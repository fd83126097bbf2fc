package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lg/aroical-go-api/internal/kvstore"
	"lg/aroical-go-api/internal/nutrition"
)

var (
	applyTargets bool
	confirmReset bool
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show calculated calorie and macro targets next to the stored ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store kvstore.Store, _ nutrition.Calendar) error {
			profiles := nutrition.NewProfileManager(cmd.Context(), store)
			p := profiles.Profile()
			out := cmd.OutOrStdout()

			m := p.CalculateMacros()
			fmt.Fprintf(out, "BMR: %.1f kcal\n", p.BMR())
			fmt.Fprintf(out, "Calculated: %d kcal | P %dg | C %dg | F %dg\n", p.CalculateTDEE(), m.ProteinG, m.CarbsG, m.FatG)
			fmt.Fprintf(out, "Stored:     %d kcal | P %dg | C %dg | F %dg\n", p.TargetCalories, p.TargetProtein, p.TargetCarbs, p.TargetFat)

			if !applyTargets {
				return nil
			}
			if _, err := profiles.ApplyCalculatedTargets(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Applied calculated targets.")
			return nil
		})
	},
}

var resetProfileCmd = &cobra.Command{
	Use:   "reset-profile",
	Short: "Replace the profile with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmReset {
			return errors.New("refusing to reset without --yes")
		}
		return withStore(cmd.Context(), func(store kvstore.Store, _ nutrition.Calendar) error {
			p, err := nutrition.NewProfileManager(cmd.Context(), store).Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile reset. Target: %d kcal\n", p.TargetCalories)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd, resetProfileCmd)
	targetsCmd.Flags().BoolVar(&applyTargets, "apply", false, "Store the calculated targets")
	resetProfileCmd.Flags().BoolVar(&confirmReset, "yes", false, "Confirm the reset")
}
