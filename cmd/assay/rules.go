package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/assay/internal/astcheck"
	"github.com/chris-regnier/assay/internal/config"
	"github.com/chris-regnier/assay/internal/rules"
)

var flagRulesCategory string

var (
	ruleIDStyle   = lipgloss.NewStyle().Bold(true)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

func init() {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the available rules and their configuration",
		Args:  cobra.NoArgs,
		RunE:  runRulesList,
	}

	showCmd := &cobra.Command{
		Use:   "show [rule-id]",
		Short: "Show the documentation of a rule",
		Args:  cobra.ExactArgs(1),
		RunE:  runRulesShow,
	}

	rulesCmd.Flags().StringVar(&flagRulesCategory, "category", "", "Only list rules in this category: reliability, maintainability, tests")

	rulesCmd.AddCommand(showCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	registry := astcheck.DefaultRegistry()
	cfg, err := loadConfig(projectDir(cmd), registry.Names())
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(projectDir(cmd))
	if err != nil {
		return err
	}
	implemented := registry.Names()
	if flagRulesCategory != "" {
		implemented = inCategory(implemented, catalog, rules.RuleCategory(flagRulesCategory))
	}
	writeRuleList(cmd.OutOrStdout(), implemented, catalog, cfg)
	return nil
}

// inCategory keeps the implemented keys whose catalog entry has category.
func inCategory(implemented []string, catalog []rules.Rule, category rules.RuleCategory) []string {
	idx := rules.Index(rules.ByCategory(catalog, category))
	var keys []string
	for _, key := range implemented {
		if _, ok := idx[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// writeRuleList prints one line per implemented rule: ID, effective level,
// category and name.
func writeRuleList(w io.Writer, implemented []string, catalog []rules.Rule, cfg *config.Config) {
	idx := rules.Index(catalog)
	for _, key := range implemented {
		doc := idx[key]
		level := cfg.Severity(key, doc.Level)
		if level == "" {
			level = "warning"
		}
		line := fmt.Sprintf("%-14s %-8s %-16s %s", key, level, doc.Category, doc.Name)
		if rc, ok := cfg.Rules[key]; !ok || !rc.Enabled || level == "none" {
			fmt.Fprintln(w, disabledStyle.Render(line+" (disabled)"))
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(projectDir(cmd))
	if err != nil {
		return err
	}
	r, ok := rules.Index(catalog)[args[0]]
	if !ok {
		return fmt.Errorf("unknown rule %q", args[0])
	}
	writeRuleDoc(cmd.OutOrStdout(), r)
	return nil
}

func writeRuleDoc(w io.Writer, r rules.Rule) {
	fmt.Fprintf(w, "%s  %s\n\n", ruleIDStyle.Render(r.ID), r.Name)
	fmt.Fprintf(w, "Category: %s\nLevel:    %s\nSource:   %s\n", r.Category, r.Level, r.Source)
	if len(r.CWE) > 0 {
		fmt.Fprintf(w, "CWE:      %s\n", strings.Join(r.CWE, ", "))
	}
	fmt.Fprintf(w, "\nMessage: %s\n", r.Message)
	if r.Explanation != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(r.Explanation))
	}
	if r.Remediation != "" {
		fmt.Fprintf(w, "\nRemediation: %s\n", strings.TrimSpace(r.Remediation))
	}
	for _, ref := range r.References {
		fmt.Fprintf(w, "  %s\n", ref)
	}
}
