package outreach

import (
	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/snapshot"
)

// DefaultOutputDir is where campaign snapshots are written.
const DefaultOutputDir = "outreach_data"

// ResultsPrefix names campaign snapshot files.
const ResultsPrefix = "outreach_results"

// Sink stores a finished campaign and returns where it went.
type Sink interface {
	Write(result *model.CampaignResult) (string, error)
}

// FileSink writes outreach_results_<timestamp>.json files into Dir.
type FileSink struct {
	Dir string
}

// Write implements Sink. The file is named after the campaign end time.
func (s FileSink) Write(result *model.CampaignResult) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = DefaultOutputDir
	}
	return snapshot.WriteJSON(dir, ResultsPrefix, result.EndedAt, result)
}
