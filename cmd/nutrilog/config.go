package nutrilog

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/service"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage evaluation thresholds stored in the database",
}

var (
	cfgMinFiber         float64
	cfgMaxSugar         float64
	cfgMaxSaturatedFat  float64
	cfgCalorieTolerance float64
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			updates := 0
			for _, c := range []struct {
				flag  string
				key   string
				value float64
			}{
				{"min-fiber", service.ConfigMinFiberG, cfgMinFiber},
				{"max-sugar", service.ConfigMaxSugarG, cfgMaxSugar},
				{"max-saturated-fat", service.ConfigMaxSaturatedFatG, cfgMaxSaturatedFat},
				{"calorie-tolerance", service.ConfigCalorieTolerance, cfgCalorieTolerance},
			} {
				if !cmd.Flags().Changed(c.flag) {
					continue
				}
				if err := service.SetConfig(sqldb, c.key, strconv.FormatFloat(c.value, 'f', -1, 64)); err != nil {
					return err
				}
				updates++
			}
			if updates == 0 {
				return fmt.Errorf("set at least one flag")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config value(s)\n", updates)
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			cfg, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			settings, err := service.LoadSettings(sqldb)
			if err != nil {
				return err
			}
			for k, v := range map[string]float64{
				service.ConfigMinFiberG:        settings.MinFiberG,
				service.ConfigMaxSugarG:        settings.MaxSugarG,
				service.ConfigMaxSaturatedFatG: settings.MaxSaturatedFatG,
				service.ConfigCalorieTolerance: settings.CalorieTolerance,
			} {
				if _, ok := cfg[k]; !ok {
					cfg[k] = strconv.FormatFloat(v, 'f', -1, 64) + " (default)"
				}
			}
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, cfg[k])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)

	configSetCmd.Flags().Float64Var(&cfgMinFiber, "min-fiber", 0, "Minimum daily fiber grams")
	configSetCmd.Flags().Float64Var(&cfgMaxSugar, "max-sugar", 0, "Maximum daily sugar grams")
	configSetCmd.Flags().Float64Var(&cfgMaxSaturatedFat, "max-saturated-fat", 0, "Maximum daily saturated fat grams")
	configSetCmd.Flags().Float64Var(&cfgCalorieTolerance, "calorie-tolerance", 0, "Goal tolerance as a fraction (0.10 = 10%)")
}
