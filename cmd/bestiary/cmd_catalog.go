package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bestiary/pkg/domain"
)

func newVocabCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "List the observable features with their picklist numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vocab := a.service.Vocabulary()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), vocab)
			}
			printPicklist(cmd.OutOrStdout(), vocab)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as a JSON array")
	return cmd
}

func newAnimalsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "animals",
		Short: "List the animals the knowledge base describes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := a.service.Animals()
			fmt.Fprintf(cmd.OutOrStdout(), "知识库包含 %d 种动物: %s\n", len(names), strings.Join(names, ", "))
			return nil
		},
	}
}

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the rule catalog in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, r := range a.service.Catalog().Rules() {
				fmt.Fprintf(out, "%s: %s\n", r.ID, r.Description)
				fmt.Fprintf(out, "    如果 %s\n", formatAssignments(r.Conditions))
				fmt.Fprintf(out, "    那么 %s\n", formatAssignments(r.Conclusion))
			}
			return nil
		},
	}
}

func newKnowledgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "knowledge <name>",
		Short: "Show the knowledge record for an animal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := a.service.Knowledge(args[0])
			if rec.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "没有关于 %s 的信息\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", rec.Name)
			printKnowledge(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func formatAssignments(list []domain.Assignment) string {
	parts := make([]string, 0, len(list))
	for _, as := range list {
		if b, ok := as.Value.AsBool(); ok && b {
			parts = append(parts, as.Attribute)
			continue
		}
		parts = append(parts, as.Attribute+"="+as.Value.String())
	}
	return strings.Join(parts, " 且 ")
}
