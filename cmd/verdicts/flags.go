package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/verdicts/pkg/types"
)

// intList collects integers from repeated flags and comma-separated values.
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("%q is not an integer", part)
		}
		*l = append(*l, v)
	}
	return nil
}

type options struct {
	criteria   types.SearchCriteria
	outputDir  string
	configPath string
}

// parseArgs parses the command line. Errors are usage errors.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("verdicts", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		startDate, endDate string
		decisionTypes      intList
		caseTypes          intList
		opts               options
	)
	fs.StringVar(&startDate, "start_date", "", "search start date, YYYY-MM-DD (required)")
	fs.StringVar(&endDate, "end_date", "", "search end date, YYYY-MM-DD (required)")
	fs.StringVar(&opts.outputDir, "output-dir", "", "output directory (default from config, else \"output\")")
	fs.Var(&decisionTypes, "decision_type", "decision type code(s), comma-separated or repeated. 1=Decision, 2=Judgment")
	fs.Var(&caseTypes, "case_type", "case type code(s), comma-separated or repeated. e.g. 13=CrimA, 21=ADA")
	fs.StringVar(&opts.criteria.Keywords, "keywords", "", "free-text search")
	fs.StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	var errs []error
	from, err := parseDate("start_date", startDate)
	errs = append(errs, err)
	to, err := parseDate("end_date", endDate)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end_date %s is before start_date %s", endDate, startDate)
	}

	opts.criteria.From = from
	opts.criteria.To = to
	opts.criteria.DecisionTypes = decisionTypes
	opts.criteria.CaseTypes = caseTypes
	return &opts, nil
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("-%s is required", name)
	}
	t, err := time.Parse(types.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: %q is not a YYYY-MM-DD date", name, value)
	}
	return t, nil
}
