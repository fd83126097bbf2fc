package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lg/aroical-go-api/internal/kvstore"
	"lg/aroical-go-api/internal/nutrition"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show a day's intake against the calorie target",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store kvstore.Store, cal nutrition.Calendar) error {
			day := time.Now()
			if todayDate != "" {
				parsed, err := cal.ParseDay(todayDate)
				if err != nil {
					return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", todayDate)
				}
				day = parsed
			}

			logs := nutrition.NewDailyLogManager(cmd.Context(), store, cal, time.Now)
			target := nutrition.NewProfileManager(cmd.Context(), store).Profile().TargetCalories
			l, _ := logs.LogForDate(day)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date: %s\n", cal.DayKey(day))
			for _, e := range l.Entries {
				fmt.Fprintf(out, "  %-30s %5d kcal  (%s)\n", e.Name, e.Calories, e.ServingSize)
			}
			fmt.Fprintf(out, "Intake: %d kcal | P %.1fg | C %.1fg | F %.1fg\n", l.TotalCalories(), l.TotalProtein(), l.TotalCarbs(), l.TotalFat())
			fmt.Fprintf(out, "Remaining: %d of %d kcal\n", nutrition.RemainingCalories(target, l.TotalCalories()), target)
			return nil
		})
	},
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the current logging streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store kvstore.Store, cal nutrition.Calendar) error {
			logs := nutrition.NewDailyLogManager(cmd.Context(), store, cal, time.Now)
			fmt.Fprintf(cmd.OutOrStdout(), "Streak: %d day(s)\n", logs.CurrentStreak())
			return nil
		})
	},
}

var weightCmd = &cobra.Command{
	Use:   "weight [kg]",
	Short: "Log today's weight, or list recent weigh-ins",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store kvstore.Store, cal nutrition.Calendar) error {
			weights := nutrition.NewWeightLog(cmd.Context(), store, cal, time.Now)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				kg, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid weight %q", args[0])
				}
				e, err := weights.LogWeight(cmd.Context(), kg, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Logged %.1f kg on %s\n", e.WeightKg, cal.DayKey(e.Date))
				return nil
			}

			for _, e := range weights.EntriesForLastDays(30) {
				fmt.Fprintf(out, "%s  %.1f kg\n", cal.DayKey(e.Date), e.WeightKg)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd, streakCmd, weightCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
}
