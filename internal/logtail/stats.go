package logtail

import (
	"bufio"
	"os"
	"strings"
)

// Markers are the substrings the stats scan looks for in monitor output.
type Markers struct {
	Detection string `toml:"detection" mapstructure:"detection"`
	Alert     string `toml:"alert" mapstructure:"alert"`
	Recent    string `toml:"recent" mapstructure:"recent"`
}

// DefaultMarkers match the monitor's own log lines.
func DefaultMarkers() Markers {
	return Markers{
		Detection: "detected",
		Alert:     "Alert sent",
		Recent:    "Anomaly",
	}
}

// Summary is a point-in-time aggregation of the monitor log.
type Summary struct {
	Detections  int      `json:"detections"`
	Alerts      int      `json:"alerts"`
	RecentLines []string `json:"recent_lines"`
}

// Collect scans the log at path, counting detection and alert markers and
// keeping the last n lines matching the recent marker. A missing log yields
// a zero summary, not an error.
func Collect(path string, markers Markers, n int) (Summary, error) {
	var sum Summary
	// #nosec G304 -- operator-configured log path
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sum, nil
		}
		return sum, err
	}
	defer func() { _ = file.Close() }()

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if markers.Detection != "" && strings.Contains(line, markers.Detection) {
			sum.Detections++
		}
		if markers.Alert != "" && strings.Contains(line, markers.Alert) {
			sum.Alerts++
		}
		if markers.Recent != "" && strings.Contains(line, markers.Recent) {
			sum.RecentLines = append(sum.RecentLines, line)
			if len(sum.RecentLines) > n {
				sum.RecentLines = sum.RecentLines[1:]
			}
		}
	}
	if err := sc.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}
