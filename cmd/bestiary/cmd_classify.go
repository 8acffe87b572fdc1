package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"bestiary/internal/classify"
	"bestiary/pkg/domain"
)

var errNoFeatures = errors.New("no features given: use --feature or --index")

// parseFeature turns "attr" into attr=true and "attr=value" into a bool
// for true/false and a category otherwise.
func parseFeature(s string) (domain.Assignment, error) {
	attr, raw, hasValue := strings.Cut(strings.TrimSpace(s), "=")
	attr = strings.TrimSpace(attr)
	if attr == "" {
		return domain.Assignment{}, fmt.Errorf("feature %q: empty attribute", s)
	}
	if !hasValue {
		return domain.Assignment{Attribute: attr, Value: domain.Bool(true)}, nil
	}
	raw = strings.TrimSpace(raw)
	switch raw {
	case "true":
		return domain.Assignment{Attribute: attr, Value: domain.Bool(true)}, nil
	case "false":
		return domain.Assignment{Attribute: attr, Value: domain.Bool(false)}, nil
	case "":
		return domain.Assignment{}, fmt.Errorf("feature %q: empty value", s)
	}
	return domain.Assignment{Attribute: attr, Value: domain.Category(raw)}, nil
}

// pickFeature resolves a 1-based picklist index.
func pickFeature(vocab []string, index int) (string, bool) {
	if index < 1 || index > len(vocab) {
		return "", false
	}
	return vocab[index-1], true
}

func (a *app) observations(features []string, indexes []int) ([]domain.Assignment, error) {
	vocab := a.service.Vocabulary()
	known := make(map[string]struct{}, len(vocab))
	for _, v := range vocab {
		known[v] = struct{}{}
	}
	var observed []domain.Assignment
	for _, idx := range indexes {
		feature, ok := pickFeature(vocab, idx)
		if !ok {
			return nil, fmt.Errorf("feature index %d out of range 1..%d", idx, len(vocab))
		}
		observed = append(observed, domain.Assignment{Attribute: feature, Value: domain.Bool(true)})
	}
	for _, f := range features {
		as, err := parseFeature(f)
		if err != nil {
			return nil, err
		}
		if _, ok := known[as.Attribute]; !ok {
			a.logger.Warn("feature not referenced by any rule", zap.String("attribute", as.Attribute))
		}
		observed = append(observed, as)
	}
	return observed, nil
}

func newClassifyCmd(a *app) *cobra.Command {
	var (
		features []string
		indexes  []int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Identify an animal from the given features",
		Example: `  bestiary classify --feature 有毛发 --feature 吠叫 --feature 驯化 --feature 忠诚
  bestiary classify --feature 毛发颜色=棕色 --feature 中等体型 --feature 忠诚
  bestiary classify --index 3 --index 12 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(features) == 0 && len(indexes) == 0 {
				return errNoFeatures
			}
			observed, err := a.observations(features, indexes)
			if err != nil {
				return err
			}
			report, err := a.service.Classify(cmd.Context(), observed)
			if err != nil && report.SessionID == "" {
				return err
			}
			if asJSON {
				if jerr := writeJSON(cmd.OutOrStdout(), report); jerr != nil {
					return jerr
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&features, "feature", "f", nil, "observed feature, as attr or attr=value (repeatable)")
	cmd.Flags().IntSliceVarP(&indexes, "index", "i", nil, "observed feature by picklist number as listed by vocab (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Pick features by number, one per line, then classify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			names := a.service.Animals()
			fmt.Fprintf(out, "知识库包含 %d 种动物: %s\n\n", len(names), strings.Join(names, ", "))

			vocab := a.service.Vocabulary()
			fmt.Fprintln(out, "可选择的特征:")
			printPicklist(out, vocab)
			fmt.Fprintln(out, "\n(请输入特征编号，每行一个，空行结束)")

			var observed []domain.Assignment
			seen := make(map[string]bool)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "特征编号: ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					break
				}
				idx, err := strconv.Atoi(line)
				if err != nil {
					fmt.Fprintln(out, "警告: 请输入数字编号")
					continue
				}
				feature, ok := pickFeature(vocab, idx)
				if !ok {
					fmt.Fprintln(out, "警告: 无效编号")
					continue
				}
				fmt.Fprintf(out, "添加特征: %s\n", feature)
				if !seen[feature] {
					seen[feature] = true
					observed = append(observed, domain.Assignment{Attribute: feature, Value: domain.Bool(true)})
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read features: %w", err)
			}

			fmt.Fprintln(out, "\n开始推理...")
			report, err := a.service.Classify(cmd.Context(), observed)
			if err != nil && report.SessionID == "" {
				return err
			}
			printReport(out, report)
			return err
		},
	}
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		parallelism int
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Classify every observation set in a YAML file concurrently",
		Long: `batch reads a YAML list of observation sets, each a list of features in
the same attr or attr=value form accepted by classify, and runs one
session per set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			batches := make([][]domain.Assignment, len(sets))
			for i, set := range sets {
				observed, err := a.observations(set, nil)
				if err != nil {
					return fmt.Errorf("observation set %d: %w", i, err)
				}
				batches[i] = observed
			}
			if !cmd.Flags().Changed("parallelism") {
				parallelism = a.cfg.Parallelism
			}
			reports, err := a.service.ClassifyBatch(cmd.Context(), batches, parallelism)
			if err != nil && reports == nil {
				return err
			}
			if asJSON {
				if jerr := writeJSON(cmd.OutOrStdout(), reports); jerr != nil {
					return jerr
				}
			} else {
				printBatch(cmd, reports)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 0, "sessions run at once (default BESTIARY_PARALLELISM)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reports as a JSON array")
	return cmd
}

func readBatchFile(path string) ([][]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied batch file
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var sets [][]string
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("decode batch file: %w", err)
	}
	return sets, nil
}

func printBatch(cmd *cobra.Command, reports []classify.Report) {
	out := cmd.OutOrStdout()
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "#%d %s\n", i+1, displayName(r.Classification))
		printFirings(out, r.Firings)
	}
}
