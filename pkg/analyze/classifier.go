// pkg/analyze/classifier.go
// Package analyze provides rule-based implementations of the engine's
// classification and parameter-extraction ports. They cover common task
// phrasings so the pipeline runs without an external decision service.
package analyze

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskora-ai/taskora/pkg/task"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>)]+`)

// Classifier is a keyword-driven task classifier implementing
// engine.Classifier.
type Classifier struct {
	logger zerolog.Logger
}

// NewClassifier creates a rule-based classifier.
func NewClassifier() *Classifier {
	return &Classifier{
		logger: log.With().Str("component", "TaskClassifier").Logger(),
	}
}

// Classify derives a Classification from the task text. Confidence is
// fixed per rule tier; it never reaches the level an external model
// would claim.
func (c *Classifier) Classify(ctx context.Context, content string) (*task.Classification, error) {
	lower := strings.ToLower(content)
	urls := urlPattern.FindAllString(content, -1)

	cls := &task.Classification{
		PrimaryTask:    task.TypeUnknown,
		Complexity:     task.ComplexitySimple,
		EstimatedSteps: 1,
		OutputFormat:   detectOutputFormat(lower),
		Confidence:     0.5,
		Reasoning:      "keyword classification",
	}

	var secondary []task.Type
	addSecondary := func(t task.Type) {
		if cls.PrimaryTask == t {
			return
		}
		for _, s := range secondary {
			if s == t {
				return
			}
		}
		secondary = append(secondary, t)
	}

	switch {
	case containsAny(lower, "api", "endpoint", "rest"):
		cls.PrimaryTask = task.TypeAPICall
		cls.Confidence = 0.7
	case len(urls) > 0 || containsAny(lower, "scrape", "website", "web page", "webpage"):
		cls.PrimaryTask = task.TypeWebScraping
		cls.Confidence = 0.8
	case containsAny(lower, "chart", "graph", "plot", "visuali", "map of"):
		cls.PrimaryTask = task.TypeVisualization
		cls.Confidence = 0.7
	case containsAny(lower, "csv", "excel", "spreadsheet", "file"):
		cls.PrimaryTask = task.TypeFileProcessing
		cls.Confidence = 0.6
	case containsAny(lower, "transform", "convert", "clean"):
		cls.PrimaryTask = task.TypeDataTransformation
		cls.Confidence = 0.6
	}

	if containsAny(lower, "chart", "graph", "plot", "visuali") {
		addSecondary(task.TypeVisualization)
	}
	if containsAny(lower, "average", "mean", "sum of", "count", "total", "statistic") {
		addSecondary(task.TypeStatisticalAnalysis)
	}
	if containsAny(lower, "filter", "only", "exclude", "transform") {
		addSecondary(task.TypeDataTransformation)
	}
	cls.SecondaryTasks = secondary

	cls.RequiresJS = containsAny(lower, "javascript", "dynamic", "rendered", "single-page", "spa")
	cls.RequiresAuth = containsAny(lower, "login", "password", "api key", "token", "authenticate")
	cls.RequiresData = len(urls) > 0 || containsAny(lower, "dataset", "data from", "download")

	cls.EstimatedSteps = estimateSteps(lower, len(urls), len(secondary))
	cls.Complexity = complexityFor(cls.EstimatedSteps, len(urls))

	c.logger.Debug().
		Str("primary", string(cls.PrimaryTask)).
		Str("complexity", string(cls.Complexity)).
		Int("steps", cls.EstimatedSteps).
		Msg("task classified")

	return cls, nil
}

func estimateSteps(lower string, urlCount, secondaryCount int) int {
	steps := 1
	if urlCount > 1 {
		steps += urlCount - 1
	}
	steps += secondaryCount
	if containsAny(lower, "export", "save", "download as", "output") {
		steps++
	}
	if steps > 20 {
		steps = 20
	}
	return steps
}

func complexityFor(steps, urlCount int) task.Complexity {
	switch {
	case steps >= 5 || urlCount > 2:
		return task.ComplexityComplex
	case steps >= 3 || urlCount > 1:
		return task.ComplexityMedium
	default:
		return task.ComplexitySimple
	}
}

func detectOutputFormat(lower string) task.OutputFormat {
	switch {
	case containsAny(lower, "as csv", "to csv", "csv file"):
		return task.OutputCSV
	case containsAny(lower, "excel", "xlsx", "spreadsheet"):
		return task.OutputExcel
	case containsAny(lower, "as json", "to json", "json file"):
		return task.OutputJSON
	case containsAny(lower, "chart", "graph", "plot"):
		return task.OutputChart
	case containsAny(lower, "html"):
		return task.OutputHTML
	default:
		return task.OutputText
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
