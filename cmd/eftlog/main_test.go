package main

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("format", "jsonl", "")
	cmd.Flags().StringSlice("include-types", nil, "")
	cmd.Flags().Duration("poll-interval", 30*time.Second, "")
	cmd.Flags().Bool("raw", false, "")
	return cmd
}

func TestApplyConfig_FromFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	cfg := "format: pretty\ninclude-types:\n  - raid_loaded\n  - flea_sold\npoll-interval: 5s\nraw: true\n"
	if err := v.ReadConfig(strings.NewReader(cfg)); err != nil {
		t.Fatal(err)
	}

	cmd := newConfigTestCmd()
	if err := applyConfig(cmd, v); err != nil {
		t.Fatalf("applyConfig() error = %v", err)
	}

	if got, _ := cmd.Flags().GetString("format"); got != "pretty" {
		t.Errorf("format = %q, want pretty", got)
	}
	if got, _ := cmd.Flags().GetStringSlice("include-types"); !reflect.DeepEqual(got, []string{"raid_loaded", "flea_sold"}) {
		t.Errorf("include-types = %v", got)
	}
	if got, _ := cmd.Flags().GetDuration("poll-interval"); got != 5*time.Second {
		t.Errorf("poll-interval = %v, want 5s", got)
	}
	if got, _ := cmd.Flags().GetBool("raw"); !got {
		t.Error("raw = false, want true")
	}
}

func TestApplyConfig_CommandLineWins(t *testing.T) {
	v := viper.New()
	v.Set("format", "yaml")

	cmd := newConfigTestCmd()
	if err := cmd.Flags().Set("format", "pretty"); err != nil {
		t.Fatal(err)
	}
	if err := applyConfig(cmd, v); err != nil {
		t.Fatalf("applyConfig() error = %v", err)
	}
	if got, _ := cmd.Flags().GetString("format"); got != "pretty" {
		t.Errorf("format = %q, want pretty", got)
	}
}

func TestApplyConfig_Env(t *testing.T) {
	t.Setenv("EFTLOG_POLL_INTERVAL", "2s")

	v := viper.New()
	v.SetEnvPrefix("EFTLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := newConfigTestCmd()
	if err := applyConfig(cmd, v); err != nil {
		t.Fatalf("applyConfig() error = %v", err)
	}
	if got, _ := cmd.Flags().GetDuration("poll-interval"); got != 2*time.Second {
		t.Errorf("poll-interval = %v, want 2s", got)
	}
}

func TestApplyConfig_InvalidValue(t *testing.T) {
	v := viper.New()
	v.Set("poll-interval", "soon")

	if err := applyConfig(newConfigTestCmd(), v); err == nil {
		t.Error("applyConfig() expected error for invalid duration")
	}
}
