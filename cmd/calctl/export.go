package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lg/aroical-go-api/internal/kvstore"
	"lg/aroical-go-api/internal/nutrition"
)

var withImages bool

// exportBundle is everything one device stores.
type exportBundle struct {
	ExportedAt time.Time               `json:"exported_at"`
	Profile    nutrition.UserProfile   `json:"profile"`
	DailyLogs  []nutrition.DailyLog    `json:"daily_logs"`
	WeightLog  []nutrition.WeightEntry `json:"weight_log"`
	Language   nutrition.Language      `json:"language"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all stored data as JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store kvstore.Store, cal nutrition.Calendar) error {
			ctx := cmd.Context()
			bundle := exportBundle{
				ExportedAt: time.Now().UTC(),
				Profile:    nutrition.NewProfileManager(ctx, store).Profile(),
				DailyLogs:  nutrition.NewDailyLogManager(ctx, store, cal, time.Now).Logs(),
				WeightLog:  nutrition.NewWeightLog(ctx, store, cal, time.Now).Entries(),
				Language:   nutrition.NewLanguageSetting(ctx, store, "").Current(),
			}
			if !withImages {
				for i := range bundle.DailyLogs {
					for j := range bundle.DailyLogs[i].Entries {
						bundle.DailyLogs[i].Entries[j].ImageData = nil
					}
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		})
	},
}

var languageCmd = &cobra.Command{
	Use:   "language [en|th|ja]",
	Short: "Show or set the app language",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store kvstore.Store, _ nutrition.Calendar) error {
			setting := nutrition.NewLanguageSetting(cmd.Context(), store, "")
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), setting.Current())
				return nil
			}
			lang, ok := nutrition.ParseLanguage(strings.ToLower(args[0]))
			if !ok {
				return fmt.Errorf("unsupported language %q (want en, th or ja)", args[0])
			}
			if err := setting.Set(cmd.Context(), lang); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Language set to %s\n", lang)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, languageCmd)
	exportCmd.Flags().BoolVar(&withImages, "with-images", false, "Include base64 photo data")
}
