package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DukeRupert/greenmarine/internal/catalog"
	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/engine"
	"github.com/DukeRupert/greenmarine/internal/tui"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

var (
	// Global flags
	catalogPath  string
	outputFormat string

	// Recommend flags
	boatLength   string
	boatWeight   string
	tripDuration string

	// Wizard flags
	advanceDelay time.Duration
	leadsPath    string
)

var rootCmd = &cobra.Command{
	Use:   "calculator",
	Short: "Green Marine electric motor calculator",
	Long: `Recommends a Green Marine electric motor and battery pack for a boat,
either from flags or through the interactive questionnaire.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a motor and battery for a boat",
	Example: `  calculator recommend --length 6 --weight 2000 --duration 4-8
  calculator recommend --length 7,5 --weight 3500 --output json`,
	RunE: runRecommend,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List motors and battery options",
	RunE:  runCatalog,
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Run the questionnaire in the terminal",
	Long: `Walks through the calculator questions and shows the recommendation.
Quote requests are appended to a JSON lines file.`,
	RunE: runWizard,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", os.Getenv("CATALOG_PATH"), "YAML motor catalog (defaults to the built-in catalog)")

	recommendCmd.Flags().StringVarP(&boatLength, "length", "l", "", "Boat length in meters (3-20)")
	recommendCmd.Flags().StringVarP(&boatWeight, "weight", "w", "", "Boat weight in kg (500-20000)")
	recommendCmd.Flags().StringVarP(&tripDuration, "duration", "d", "", "Typical trip: 2-4, 4-8 or 8+")
	recommendCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json, yaml)")

	catalogCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json, yaml)")

	wizardCmd.Flags().DurationVar(&advanceDelay, "delay", wizard.DefaultAdvanceDelay, "Pause before moving to the next question")
	wizardCmd.Flags().StringVar(&leadsPath, "leads", "leads.jsonl", "File that receives quote requests")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(crmCmd)
}

func loadEngine() (*engine.Engine, error) {
	c, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	return engine.New(c)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}

	params := domain.ParseBoatParameters(boatLength, boatWeight, tripDuration)
	rec := e.Recommend(params)
	return writeRecommendation(cmd.OutOrStdout(), rec, outputFormat)
}

func writeRecommendation(w io.Writer, rec domain.Recommendation, format string) error {
	switch format {
	case "json":
		return writeJSON(w, rec)
	case "yaml":
		return yaml.NewEncoder(w).Encode(rec)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	d := rec.Display()
	in := rec.Input
	fmt.Fprintf(w, "Boot: %s m, %s kg, vaartocht %s uur\n\n",
		formatFloat(in.LengthMeters), formatFloat(in.WeightKg), tripLabel(in.TripDuration))
	fmt.Fprintf(w, "  %-28s %s (%s kW)\n", "Aanbevolen motor", d.MotorName, d.MotorPowerKw)
	fmt.Fprintf(w, "  %-28s %s kWh\n", "Accupakket", d.BatteryKwh)
	fmt.Fprintf(w, "  %-28s %s km/u\n", "Rompsnelheid", d.MaxHullSpeedKmh)
	fmt.Fprintf(w, "  %-28s %s km/u\n", "Kruissnelheid", d.CruisingSpeedKmh)
	fmt.Fprintf(w, "  %-28s %s kW\n", "Vermogen kruissnelheid", d.RequiredPowerCruisingKw)
	fmt.Fprintf(w, "  %-28s %s kW\n", "Maximaal vermogen", d.MaxPowerKw)
	fmt.Fprintf(w, "  %-28s %s uur\n", "Vaartijd op kruissnelheid", d.EstimatedCruisingHours)
	fmt.Fprintf(w, "  %-28s %s uur\n", "Vaartijd volgas", d.VolgasHours)
	return nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	c, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		return writeJSON(w, map[string]domain.Catalog{"motors": c})
	case "yaml":
		return yaml.NewEncoder(w).Encode(map[string]domain.Catalog{"motors": c})
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	fmt.Fprintf(w, "  %-10s %8s %12s  %s\n", "MOTOR", "VERMOGEN", "MAX GEWICHT", "ACCU'S")
	for _, m := range c {
		batteries := ""
		for i, b := range m.BatteryOptionsKwh {
			if i > 0 {
				batteries += ", "
			}
			batteries += formatFloat(b)
		}
		fmt.Fprintf(w, "  %-10s %5s kW %9s kg  %s kWh\n",
			m.Name, formatFloat(m.RatedPowerKw), formatFloat(m.MaxSupportedWeightKg), batteries)
	}
	return nil
}

func runWizard(cmd *cobra.Command, args []string) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}

	ctrl := wizard.NewController(e, advanceDelay, nil)
	defer ctrl.Close()

	sink := tui.NewFileSink(leadsPath)
	n, err := tui.Run(ctrl, sink)
	if err != nil {
		return err
	}
	if n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d aanvraag/aanvragen opgeslagen in %s\n", n, sink.Path())
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func tripLabel(d domain.TripDuration) string {
	if d == "" {
		return "onbekend"
	}
	return d.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
