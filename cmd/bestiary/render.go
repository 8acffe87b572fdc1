package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bestiary/internal/classify"
	"bestiary/pkg/domain"
)

const (
	unknownAnimal = "未知动物"
	picklistWidth = 5
)

func printPicklist(w io.Writer, vocab []string) {
	for i, f := range vocab {
		fmt.Fprintf(w, "%2d: %s", i+1, f)
		if (i+1)%picklistWidth == 0 || i == len(vocab)-1 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, "  ")
		}
	}
}

func printFirings(w io.Writer, firings []domain.Firing) {
	for _, f := range firings {
		fmt.Fprintf(w, "触发规则 %s: %s\n", f.RuleID, f.Description)
	}
}

func displayName(c domain.Classification) string {
	if !c.Classified() {
		return unknownAnimal
	}
	return c.Name
}

func printReport(w io.Writer, r classify.Report) {
	printFirings(w, r.Firings)
	c := r.Classification
	fmt.Fprintln(w, "推理结果:")
	fmt.Fprintf(w, "  动物名称: %s\n", displayName(c))
	if c.Category != "" {
		fmt.Fprintf(w, "  大类: %s\n", c.Category)
	}
	if c.Subcategory != "" {
		fmt.Fprintf(w, "  亚类: %s\n", c.Subcategory)
	}
	switch {
	case !c.Classified():
		fmt.Fprintln(w, "未能推断出动物，请提供更多特征。")
	case r.Knowledge == nil:
		fmt.Fprintf(w, "没有关于 %s 的信息\n", c.Name)
	default:
		fmt.Fprintln(w)
		fmt.Fprintln(w, "动物知识摘要:")
		printKnowledge(w, *r.Knowledge)
	}
}

func printKnowledge(w io.Writer, rec domain.KnowledgeRecord) {
	fmt.Fprintf(w, "大类: %s\n", rec.Category)
	fmt.Fprintf(w, "亚类: %s\n", rec.Subcategory)
	fmt.Fprintf(w, "特征: %s\n", strings.Join(rec.Features, "、"))
	fmt.Fprintf(w, "外观: %s\n", strings.Join(rec.Appearance, "、"))
	fmt.Fprintf(w, "习性: %s\n", strings.Join(rec.Behaviors, "、"))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
