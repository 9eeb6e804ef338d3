// Package ingest reads run inputs: target subreddit lists and keyword
// lists, both simple CSV files with a header row.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// LoadTargets reads a targets file (subreddit,min_score). Rows with an
// invalid subreddit name are skipped; a bad min_score means 0.
func LoadTargets(path string) ([]domain.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening targets file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(stripBOM(f))
	reader.FieldsPerRecord = -1

	var targets []domain.Target
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading targets file: %w", err)
		}
		line++
		if line == 1 || len(record) == 0 {
			continue // header
		}
		sub := strings.TrimSpace(record[0])
		if !subNameRegex.MatchString(sub) {
			continue
		}
		minScore := 0
		if len(record) > 1 {
			minScore, _ = strconv.Atoi(strings.TrimSpace(record[1]))
		}
		targets = append(targets, domain.Target{Subreddit: sub, MinScore: minScore})
	}
	return targets, nil
}

// LoadKeywords reads a one-column keyword file, lowercasing each entry.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keywords file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(stripBOM(f))
	reader.FieldsPerRecord = -1

	var keywords []string
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading keywords file: %w", err)
		}
		line++
		if line == 1 || len(record) == 0 {
			continue
		}
		if kw := strings.ToLower(strings.TrimSpace(record[0])); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords, nil
}

// stripBOM drops a UTF-8 byte order mark, common in spreadsheet exports.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rn, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rn != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
